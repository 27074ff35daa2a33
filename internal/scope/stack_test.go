package scope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestStack_ReverseOrder(t *testing.T) {
	var order []string
	var s Stack

	Use(&s, &closer{name: "layout", order: &order})
	Use(&s, &closer{name: "collector", order: &order})
	s.DeferFunc(func() { order = append(order, "scheduler") })

	assert.Equal(t, 3, s.Len())
	assert.NoError(t, s.Close())
	assert.Equal(t, []string{"scheduler", "collector", "layout"}, order)
}

func TestStack_CloseIsIdempotent(t *testing.T) {
	calls := 0
	var s Stack
	s.DeferFunc(func() { calls++ })

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, calls)
}

func TestStack_JoinsErrors(t *testing.T) {
	var order []string
	e1 := errors.New("one")
	e2 := errors.New("two")
	var s Stack
	Use(&s, &closer{name: "a", order: &order, err: e1})
	Use(&s, &closer{name: "b", order: &order, err: e2})

	err := s.Close()
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.Equal(t, []string{"b", "a"}, order, "every function runs despite errors")
}

func TestStack_DeferAfterCloseRunsImmediately(t *testing.T) {
	ran := false
	var s Stack
	_ = s.Close()

	s.DeferFunc(func() { ran = true })
	assert.True(t, ran)
}
