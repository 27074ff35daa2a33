package builtin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/runger/sift/internal/extension"
)

// Print writes the value of every target item to W, one per line.
type Print struct {
	W io.Writer
}

func (Print) Description() string { return "print" }

func (a Print) Invoke(ctx context.Context, params extension.ActionParams) (bool, error) {
	for _, it := range params.Targets() {
		if _, err := fmt.Fprintln(a.W, it.Value); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Yank copies the target values, newline separated, to the system clipboard.
type Yank struct {
	// Write replaces the clipboard writer; nil uses the system clipboard.
	Write func(string) error
}

func (Yank) Description() string { return "yank" }

func (a Yank) Invoke(ctx context.Context, params extension.ActionParams) (bool, error) {
	targets := params.Targets()
	if len(targets) == 0 {
		return false, nil
	}
	values := make([]string, len(targets))
	for i, it := range targets {
		values[i] = it.Value
	}
	write := a.Write
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(strings.Join(values, "\n")); err != nil {
		return false, fmt.Errorf("copy to clipboard: %w", err)
	}
	return false, nil
}

// Open hands the path detail of every target to the system opener. Items
// without a path are skipped; failures are logged and do not stop the rest.
type Open struct {
	Command  string // xdg-open, or open on macOS, when empty
	PathAttr string // "path" when empty
	Logger   *slog.Logger
}

func (Open) Description() string { return "open" }

func (a Open) Invoke(ctx context.Context, params extension.ActionParams) (bool, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opener := a.Command
	if opener == "" {
		opener = systemOpener()
	}
	attr := orDefault(a.PathAttr, "path")

	for _, it := range params.Targets() {
		path, ok := it.DetailString(attr)
		if !ok || path == "" {
			continue
		}
		cmd := exec.CommandContext(ctx, opener, path) //nolint:gosec // G204: opener is fixed or user configured
		if out, err := cmd.CombinedOutput(); err != nil {
			logger.Warn("open failed",
				"path", path,
				"opener", opener,
				"error", err,
				"output", strings.TrimSpace(string(out)),
			)
		}
	}
	return false, nil
}

func systemOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
