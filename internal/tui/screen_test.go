package tui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/builtin"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
	"github.com/runger/sift/internal/picker"
)

func init() {
	// Plain output keeps rendered views comparable.
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestPaint(t *testing.T) {
	decs := []item.Decoration{{Column: 2, Length: 2, Highlight: builtin.HighlightMatch}}
	assert.Equal(t, "abcd  ", paint("abcd", decs, 6, normalStyle))
	assert.Equal(t, "ab", paint("abcd", decs, 2, normalStyle))
	assert.Equal(t, "", paint("abcd", nil, 0, normalStyle))
	assert.Equal(t, "日本 ", paint("日本語", []item.Decoration{{Column: 4, Length: 30, Highlight: "x"}}, 5, normalStyle))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{"hello", "world"}, wrap("hello world", 6))
	assert.Equal(t, []string{"abcd"}, wrap("abcdefgh", 4))
	assert.Nil(t, wrap("x", 0))
}

func TestBorderFor(t *testing.T) {
	assert.Equal(t, asciiBorder, borderFor("ascii"))
	assert.Equal(t, lipgloss.DoubleBorder(), borderFor("double"))
	assert.Equal(t, lipgloss.RoundedBorder(), borderFor("bogus"))
}

func TestPreviewState_MoveTo(t *testing.T) {
	var p previewState
	p.replace(make([]string, 100), "go")

	p.moveTo(50, 3, 10)
	assert.Equal(t, 50, p.line)
	assert.Equal(t, 3, p.column)
	assert.Equal(t, 44, p.top)

	p.moveTo(500, 0, 10)
	assert.Equal(t, 100, p.line)
	assert.Equal(t, 1, p.column)
	assert.Equal(t, 90, p.top)
}

func TestPreviewState_Move(t *testing.T) {
	var p previewState
	p.replace(make([]string, 30), "")

	p.move(5, 10)
	assert.Equal(t, 6, p.line)
	assert.Equal(t, 0, p.top, "no scroll while visible")

	p.move(10, 10)
	assert.Equal(t, 16, p.line)
	assert.Equal(t, 6, p.top)

	p.move(-100, 10)
	assert.Equal(t, 1, p.line)
	assert.Equal(t, 0, p.top)
}

func TestScreen_View(t *testing.T) {
	s := newScreen(picker.LayoutParams{
		Title: "files", Width: 60, WidthMin: 20, Height: 8, PreviewRatio: 0.5, Border: "ascii",
	}, Options{})
	s.resize(60, 8)

	s.Query().SetQuery(picker.QueryLine{Text: "> ma"})
	s.Selector().SetSelector(picker.SelectorView{
		Rows: []picker.Row{
			{Item: item.Promote(0, item.SourceItem{Value: "main.go"})},
			{Item: item.Promote(1, item.SourceItem{Value: "Makefile"}), Selected: true},
		},
		Cursor: 1,
		Total:  2,
	})
	s.Preview().SetTitle("Makefile")
	s.Preview().Replace([]string{"all:", "  go build"}, "make")

	view := s.view()
	lines := strings.Split(view, "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "+- files -"), lines[0])
	assert.Contains(t, lines[0], "- Makefile -")
	assert.Contains(t, lines[1], "|> ma")
	assert.Contains(t, lines[1], "|all:")
	assert.Contains(t, lines[3], "  main.go")
	assert.Contains(t, lines[4], ">*Makefile")
	for _, l := range lines {
		assert.Equal(t, 60, lipgloss.Width(l), l)
	}
}

func TestScreen_ViewBeforeSize(t *testing.T) {
	s := newScreen(picker.DefaultLayout(), Options{})
	assert.Empty(t, s.view())
	w, h := s.Selector().Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestScreen_NoPreview(t *testing.T) {
	layout := picker.DefaultLayout()
	layout.PreviewRatio = 0
	s := newScreen(layout, Options{})
	s.resize(120, 40)

	w, h := s.Preview().Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestScreen_RedrawCoalesces(t *testing.T) {
	s := newTestScreen()
	require.NoError(t, s.Redraw(context.Background()))
	require.NoError(t, s.Redraw(context.Background()))
	assert.Len(t, s.redraw, 1)

	close(s.done)
	assert.ErrorIs(t, s.Redraw(context.Background()), ErrScreenClosed)
}

func TestOpener_RunWithoutScreen(t *testing.T) {
	_, err := NewOpener(Options{}).Run(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrScreenClosed)
}

// TestOpener_PickerSession drives a whole session through the terminal
// program with keys written to its input.
func TestOpener_PickerSession(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a terminal program")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	in, keys := io.Pipe()
	defer keys.Close()
	opener := NewOpener(Options{Input: in, Output: io.Discard})

	opts := picker.DefaultOptions()
	opts.RedrawInterval = time.Millisecond
	p := picker.New(
		builtin.Values("apple", "banana", "cherry"),
		nil,
		[]extension.Projector{builtin.Filter{}},
		nil, nil, opts,
	)
	defer p.Close()
	require.NoError(t, p.Open(ctx, opener))

	var printed bytes.Buffer
	type outcome struct {
		accepted bool
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		accepted, err := p.Start(ctx, opener, builtin.Print{W: &printed})
		done <- outcome{accepted, err}
	}()

	_, err := keys.Write([]byte("nan"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(p.ProcessedItems()) == 1 && p.Context().Query == "nan"
	}, 5*time.Second, 5*time.Millisecond)

	_, err = keys.Write([]byte("\r"))
	require.NoError(t, err)

	select {
	case o := <-done:
		require.NoError(t, o.err)
		assert.True(t, o.accepted)
		assert.Equal(t, "banana\n", printed.String())
	case <-ctx.Done():
		t.Fatal("session did not finish")
	}
}
