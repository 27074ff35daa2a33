package event

import (
	"fmt"
	"strconv"
)

// Topic identifies a kind of event. The bus accepts any topic; the ones
// below are the picker's fixed contract.
type Topic string

// Pipeline lifecycle topics.
const (
	CollectorChanged   Topic = "collector-changed"   // payload: int (collected count)
	CollectorSucceeded Topic = "collector-succeeded" // payload: none
	CollectorFailed    Topic = "collector-failed"    // payload: none
	CollectorCompleted Topic = "collector-completed" // payload: none
	ProcessorSucceeded Topic = "processor-succeeded" // payload: none
	ProcessorFailed    Topic = "processor-failed"    // payload: none
)

// Input topics.
const (
	QueryTextChanged        Topic = "query-text-changed"         // payload: string
	QueryCursorChanged      Topic = "query-cursor-changed"       // payload: int
	SelectorCursorMove      Topic = "selector-cursor-move"       // payload: int (offset)
	SelectorCursorMoveTo    Topic = "selector-cursor-move-to"    // payload: Line
	SelectorToggleSelect    Topic = "selector-toggle-select"     // payload: none
	SelectorToggleSelectAll Topic = "selector-toggle-select-all" // payload: none
	PreviewCursorMove       Topic = "preview-cursor-move"        // payload: int (offset)
	PreviewCursorMoveTo     Topic = "preview-cursor-move-to"     // payload: int (1-based line)
)

// Line addresses a selector line: a 1-based number or the last line.
type Line struct {
	N    int
	Last bool
}

// LastLine addresses the last line.
var LastLine = Line{Last: true}

// ParseLine parses "$" or a 1-based line number.
func ParseLine(s string) (Line, error) {
	if s == "$" {
		return LastLine, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Line{}, fmt.Errorf("invalid line %q: %w", s, err)
	}
	return Line{N: n}, nil
}

// Index resolves the line to a 0-based index into a view of length n.
// The result is not clamped.
func (l Line) Index(n int) int {
	if l.Last {
		return n - 1
	}
	return l.N - 1
}

func (l Line) String() string {
	if l.Last {
		return "$"
	}
	return strconv.Itoa(l.N)
}
