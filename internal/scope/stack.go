// Package scope provides a teardown stack that releases resources in reverse
// acquisition order.
package scope

import (
	"errors"
	"io"
	"sync"
)

// Stack collects release functions and runs them in reverse order on Close.
// The zero value is ready to use.
type Stack struct {
	mu     sync.Mutex
	fns    []func() error
	closed bool
}

// Defer pushes fn. If the stack is already closed fn runs immediately.
func (s *Stack) Defer(fn func() error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = fn()
		return
	}
	s.fns = append(s.fns, fn)
	s.mu.Unlock()
}

// DeferFunc pushes a release function that cannot fail.
func (s *Stack) DeferFunc(fn func()) {
	s.Defer(func() error {
		fn()
		return nil
	})
}

// Use pushes c.Close and returns c.
func Use[C io.Closer](s *Stack, c C) C {
	s.Defer(c.Close)
	return c
}

// Len returns the number of pending release functions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// Close runs the release functions in reverse order and joins their errors.
// It is safe to call Close multiple times.
func (s *Stack) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()

	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
