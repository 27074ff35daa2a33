package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/runger/sift/internal/builtin"
	"github.com/runger/sift/internal/item"
	"github.com/runger/sift/internal/picker"
)

var (
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	markStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorLine    = lipgloss.NewStyle().Background(lipgloss.Color("236"))

	// highlights maps decoration names to styles. Unknown names paint
	// with the base style.
	highlights = map[string]lipgloss.Style{
		picker.HighlightQueryHead:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		picker.HighlightQueryCursor:  lipgloss.NewStyle().Reverse(true),
		picker.HighlightQueryCounter: dimStyle,
		builtin.HighlightMatch:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		builtin.HighlightDim:         dimStyle,
	}
)

var asciiBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

// borderFor maps a layout border name to a lipgloss border.
func borderFor(name string) lipgloss.Border {
	switch name {
	case "ascii":
		return asciiBorder
	case "single":
		return lipgloss.NormalBorder()
	case "double":
		return lipgloss.DoubleBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

func (s *Screen) view() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 || s.height == 0 {
		return ""
	}
	p := s.panelsLocked()
	if p.Width == 0 || p.Height == 0 {
		return ""
	}

	body := make([]string, 0, p.bodyHeight)
	body = append(body, paint(s.query.Text, s.query.Decorations, p.mainWidth, normalStyle))
	body = append(body, dimStyle.Render(strings.Repeat("─", p.mainWidth)))
	body = append(body, s.selectorRowsLocked(p)...)
	box := s.frame(s.layout.Title, body, p.mainWidth, p.bodyHeight)
	if p.previewWidth > 0 {
		preview := s.frame(s.preview.title, s.previewRowsLocked(p), p.previewWidth, p.bodyHeight)
		box = lipgloss.JoinHorizontal(lipgloss.Top, box, preview)
	}
	return lipgloss.NewStyle().MarginLeft(p.X).MarginTop(p.Y).Render(box)
}

func (s *Screen) selectorRowsLocked(p panels) []string {
	rows := make([]string, 0, p.selectorHeight)
	labelWidth := max(0, p.mainWidth-2)
	for i, row := range s.selector.Rows {
		if i >= p.selectorHeight {
			break
		}
		base, cursor := normalStyle, " "
		if i == s.selector.Cursor {
			base, cursor = selectedStyle, ">"
		}
		mark := " "
		if row.Selected {
			mark = "*"
		}
		label := paint(row.Item.Display(), row.Item.Decorations, labelWidth, base)
		rows = append(rows, base.Render(cursor)+markStyle.Render(mark)+label)
	}
	return rows
}

func (s *Screen) previewRowsLocked(p panels) []string {
	st := &s.preview
	rows := make([]string, 0, p.previewHeight)
	for n := st.top; n < len(st.lines) && len(rows) < p.previewHeight; n++ {
		style := normalStyle
		if n+1 == st.line {
			style = cursorLine
		}
		for _, part := range wrap(st.lines[n], p.previewWidth) {
			if len(rows) == p.previewHeight {
				break
			}
			rows = append(rows, style.Render(pad(part, p.previewWidth)))
		}
	}
	return rows
}

// wrap breaks a preview line at word boundaries and cuts words that are
// still too wide.
func wrap(line string, width int) []string {
	if width <= 0 {
		return nil
	}
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	parts := strings.Split(wordwrap.String(line, width), "\n")
	for i, part := range parts {
		parts[i] = runewidth.Truncate(part, width, "")
	}
	return parts
}

// frame draws a bordered panel of the given inner size with the title set
// into the top border.
func (s *Screen) frame(title string, rows []string, width, height int) string {
	for len(rows) < height {
		rows = append(rows, strings.Repeat(" ", width))
	}
	content := strings.Join(rows[:height], "\n")
	if s.layout.Border == "none" {
		return lipgloss.NewStyle().Width(width).Height(height).Render(content)
	}

	b := borderFor(s.layout.Border)
	panel := lipgloss.NewStyle().
		Border(b).
		BorderTop(false).
		BorderForeground(lipgloss.Color("62")).
		Width(width).
		Height(height).
		Render(content)
	return topBorder(b, title, width) + "\n" + panel
}

func topBorder(b lipgloss.Border, title string, width int) string {
	var sb strings.Builder
	sb.WriteString(borderStyle.Render(b.TopLeft))
	used := 0
	if title != "" && width > 4 {
		t := runewidth.Truncate(builtin.CleanLine(title), width-4, "…")
		sb.WriteString(borderStyle.Render(b.Top))
		sb.WriteString(titleStyle.Render(" " + t + " "))
		used = 1 + runewidth.StringWidth(t) + 2
	}
	sb.WriteString(borderStyle.Render(strings.Repeat(b.Top, max(0, width-used))))
	sb.WriteString(borderStyle.Render(b.TopRight))
	return sb.String()
}

// paint styles text by its decorations and fits it to width cells.
// Decoration columns are 1-based byte offsets; later decorations win.
func paint(text string, decs []item.Decoration, width int, base lipgloss.Style) string {
	if width <= 0 {
		return ""
	}
	text = runewidth.Truncate(text, width, "")

	names := make([]string, len(text))
	for _, d := range decs {
		start := max(0, d.Column-1)
		end := min(len(text), d.Column-1+d.Length)
		for i := start; i < end; i++ {
			names[i] = d.Highlight
		}
	}

	var sb strings.Builder
	runStart := 0
	flush := func(end int) {
		if end <= runStart {
			return
		}
		style, ok := highlights[names[runStart]]
		if !ok {
			style = base
		}
		sb.WriteString(style.Render(text[runStart:end]))
		runStart = end
	}
	for i := range text {
		if names[i] != names[runStart] {
			flush(i)
		}
	}
	flush(len(text))

	if w := runewidth.StringWidth(text); w < width {
		sb.WriteString(base.Render(strings.Repeat(" ", width-w)))
	}
	return sb.String()
}

func pad(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
