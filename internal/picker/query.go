package picker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mattn/go-runewidth"

	"github.com/runger/sift/internal/item"
)

// Query panel defaults.
const (
	DefaultHeadSymbol = ">"
	DefaultFailSymbol = "☓"
)

// DefaultSpinner returns the default spinner frames.
func DefaultSpinner() []string {
	return append([]string(nil), spinner.Dot.Frames...)
}

// Activity is the query panel's view of a pipeline component.
type Activity int

const (
	ActivityIdle Activity = iota
	ActivityBusy
	ActivityFailed
)

// QueryState is everything the query panel shows.
type QueryState struct {
	Text       string
	Cursor     int // Rune offset into Text
	Collecting Activity
	Processing Activity
	Processed  int
	Collected  int
	Truncated  bool
}

// QueryComponent renders the query panel: a head symbol, the query text and
// the processed/collected counter padded to the panel width.
type QueryComponent struct {
	surface QuerySurface
	frames  []string
	frame   int
	head    string
	fail    string
}

// NewQueryComponent binds a query component to surface.
func NewQueryComponent(surface QuerySurface, opts QueryOptions) *QueryComponent {
	frames := opts.Spinner
	if len(frames) == 0 {
		frames = DefaultSpinner()
	}
	head := opts.HeadSymbol
	if head == "" {
		head = DefaultHeadSymbol
	}
	fail := opts.FailSymbol
	if fail == "" {
		fail = DefaultFailSymbol
	}
	return &QueryComponent{surface: surface, frames: frames, head: head, fail: fail}
}

// Render draws st on the surface. The spinner advances one frame per call.
func (q *QueryComponent) Render(st QueryState) error {
	line := q.Line(st, q.surface.Width())
	if err := q.surface.SetQuery(line); err != nil {
		return fmt.Errorf("set query: %w", err)
	}
	return nil
}

// Line builds the query line for a panel of the given width.
func (q *QueryComponent) Line(st QueryState, width int) QueryLine {
	spin := q.nextFrame()

	head := q.head
	switch st.Processing {
	case ActivityBusy:
		head = spin
	case ActivityFailed:
		head = q.fail
	}
	tail := ""
	switch st.Collecting {
	case ActivityBusy:
		tail = spin
	case ActivityFailed:
		tail = q.fail
	}

	collected := strconv.Itoa(st.Collected)
	if st.Truncated {
		collected += "+"
	}
	prefix := head + " "
	suffix := fmt.Sprintf(" %d/%s %s", st.Processed, collected, tail)
	spacer := strings.Repeat(" ", max(0, width-runewidth.StringWidth(prefix+st.Text+suffix)))

	cursor := len(prefix) + runeByteOffset(st.Text, st.Cursor)
	return QueryLine{
		Text: prefix + st.Text + spacer + suffix,
		Decorations: []item.Decoration{
			{Column: 1, Length: len(prefix), Highlight: HighlightQueryHead},
			{Column: max(1, cursor+1), Length: 1, Highlight: HighlightQueryCursor},
			{Column: 1 + len(prefix) + len(st.Text) + len(spacer), Length: len(suffix), Highlight: HighlightQueryCounter},
		},
	}
}

func (q *QueryComponent) nextFrame() string {
	f := q.frames[q.frame%len(q.frames)]
	q.frame++
	return f
}

// runeByteOffset returns the byte offset of the n-th rune of s, or len(s)
// when n is past the end.
func runeByteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
