// Package history reads shell history files as a lazy sequence of entries.
package history

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"time"
)

// Supported shells.
const (
	ShellBash = "bash"
	ShellZsh  = "zsh"
	ShellFish = "fish"
)

// Entry is a single history entry with optional timestamp.
type Entry struct {
	Timestamp time.Time // Zero value if timestamp not available
	Command   string
}

// parser turns history file lines into entries. finish flushes any pending
// entry at end of input.
type parser interface {
	line(s string) []Entry
	finish() []Entry
}

func newParser(shell string) (parser, error) {
	switch shell {
	case ShellBash:
		return &bashParser{}, nil
	case ShellZsh:
		return &zshParser{}, nil
	case ShellFish:
		return &fishParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported shell %q", shell)
	}
}

// Scan parses r as a history file of the given shell, oldest entry first.
// The sequence stops early when ctx is cancelled.
func Scan(ctx context.Context, r io.Reader, shell string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		p, err := newParser(shell)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		scanner := bufio.NewScanner(r)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}
			for _, e := range p.line(scanner.Text()) {
				if !yield(e, nil) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Entry{}, err)
			return
		}
		for _, e := range p.finish() {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Read opens the history file of shell and scans it. An empty path uses the
// shell's default location; a missing file yields no entries.
func Read(ctx context.Context, shell, path string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if shell == "" || shell == "auto" {
			shell = DetectShell()
		}
		if path == "" {
			path = Path(shell)
		}
		if path == "" {
			return
		}

		file, err := os.Open(path) //nolint:gosec // G304: path is from user's HISTFILE or well-known default
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			yield(Entry{}, err)
			return
		}
		defer file.Close()

		for e, err := range Scan(ctx, file, shell) {
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// Path returns the default history file of shell. HISTFILE wins for bash
// and zsh.
func Path(shell string) string {
	switch shell {
	case ShellBash, ShellZsh:
		if histFile := os.Getenv("HISTFILE"); histFile != "" {
			return histFile
		}
	case ShellFish:
		// Fish uses XDG_DATA_HOME/fish/fish_history
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "fish", "fish_history")
		}
	default:
		return ""
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bash_history")
	case ShellZsh:
		return filepath.Join(home, ".zsh_history")
	default:
		return filepath.Join(home, ".local", "share", "fish", "fish_history")
	}
}

// DetectShell returns the shell name based on the SHELL environment
// variable, or "" when it is not a supported shell.
func DetectShell() string {
	switch base := filepath.Base(os.Getenv("SHELL")); base {
	case ShellBash, ShellZsh, ShellFish:
		return base
	default:
		return ""
	}
}
