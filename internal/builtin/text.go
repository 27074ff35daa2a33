package builtin

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// CleanLine makes s safe to paint on a single terminal row: escape
// sequences are stripped, invalid UTF-8 is replaced and remaining control
// characters (tabs included) become spaces.
func CleanLine(s string) string {
	s = ansi.Strip(ValidateUTF8(s))
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// ValidateUTF8 replaces invalid UTF-8 byte sequences with U+FFFD.
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

var escapeLiterals = strings.NewReplacer(
	`\033[`, "<ESC>[",
	`\033]`, "<ESC>]",
	`\x1b[`, "<ESC>[",
	`\x1B[`, "<ESC>[",
	`\x1b]`, "<ESC>]",
	`\x1B]`, "<ESC>]",
	`\e[`, "<ESC>[",
	`\e]`, "<ESC>]",
)

// PrettyEscapeLiterals replaces literal escape spellings such as "\033[" in
// shell commands with a readable "<ESC>" token. Display only.
func PrettyEscapeLiterals(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapeLiterals.Replace(s)
}

const ellipsis = "…"

// MiddleTruncate shortens s to maxWidth display cells by replacing its middle
// with an ellipsis. Below three cells it cuts from the right instead.
func MiddleTruncate(s string, maxWidth int) string {
	out, _ := middleTruncate(s, maxWidth)
	return out
}

// middleTruncate is MiddleTruncate that also reports the byte length of the
// kept head.
func middleTruncate(s string, maxWidth int) (string, int) {
	if maxWidth <= 0 {
		return "", 0
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s, len(s)
	}
	if maxWidth < 3 {
		head := truncateLeft(s, maxWidth)
		return head, len(head)
	}
	remaining := maxWidth - 1
	head := truncateLeft(s, (remaining+1)/2)
	return head + ellipsis + truncateRight(s, remaining/2), len(head)
}

// truncateLeft returns the longest prefix of s no wider than maxWidth.
func truncateLeft(s string, maxWidth int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// truncateRight returns the longest suffix of s no wider than maxWidth.
func truncateRight(s string, maxWidth int) string {
	w := 0
	start := len(s)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:start])
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			break
		}
		w += rw
		start -= size
	}
	return s[start:]
}
