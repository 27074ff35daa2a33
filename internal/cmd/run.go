package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/logging"
	"github.com/runger/sift/internal/picker"
	"github.com/runger/sift/internal/scope"
	"github.com/runger/sift/internal/storage"
	"github.com/runger/sift/internal/tui"
)

// maxQueryLen is the maximum length of a query string in bytes.
const maxQueryLen = 4096

func runPicker(cmd *cobra.Command, args []string, opts *rootOptions) error {
	cfgPath := configFilePath(opts)
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd.Flags(), cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	query, err := sanitizeQuery(opts.query)
	if err != nil {
		return err
	}

	var stack scope.Stack
	defer stack.Close()

	logger, err := openLogger(cfg, &stack)
	if err != nil {
		return err
	}
	logger, _ = logging.WithSession(logger)
	started := time.Now()
	logging.LogSessionStart(logger, logging.SessionInfo{
		Source:     cfg.Source.Kind,
		ConfigPath: cfgPath,
		Resume:     opts.resume,
		Threshold:  cfg.Picker.Threshold,
		PID:        os.Getpid(),
	})
	outcome := "error"
	defer func() { logging.LogSessionEnd(logger, outcome, started) }()

	tty, err := openTTY()
	if err != nil {
		return err
	}
	scope.Use(&stack, tty)
	// stdout is usually a pipe, so detect colors from the terminal itself.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	stack.DeferFunc(stop)

	pl, err := buildPipeline(cfg, args, cmd.InOrStdin(), cmd.OutOrStdout(), logger, &stack)
	if err != nil {
		return err
	}
	popts := pickerOptions(cfg.Picker, logger)

	var store storage.Store
	if opts.resume != "" {
		store, popts.RestoreContext, err = openResume(ctx, cfg, opts.resume, &stack, logger)
		if err != nil {
			return err
		}
	}
	if query != "" {
		if popts.RestoreContext == nil {
			popts.RestoreContext = &picker.Context{}
		}
		popts.RestoreContext.Query = query
	}

	opener := tui.NewOpener(tui.Options{
		Input:     tty,
		Output:    tty,
		AltScreen: cfg.Picker.AltScreen,
		Logger:    logger,
	})
	p, err := openSession(ctx, pl, popts, opener)
	if err != nil {
		return err
	}
	defer p.Close()

	accepted, err := p.Start(ctx, opener, pl.action)
	if store != nil {
		saveResume(context.WithoutCancel(ctx), store, opts.resume, p.Context(), cfg.Resume.MaxAgeDays, logger)
	}
	switch {
	case err != nil:
		logger.Error("session failed", "error", err)
		return err
	case !accepted:
		outcome = "cancelled"
		return errCancelled
	}
	outcome = "accepted"
	return nil
}

// openSession creates a picker over pl and acquires its surfaces.
func openSession(ctx context.Context, pl *pipeline, opts picker.Options, opener picker.Opener) (*picker.Picker, error) {
	p := picker.New(pl.source, pl.transformers, pl.projectors, pl.renderers, pl.previewers, opts)
	if err := p.Open(ctx, opener); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// openLogger opens the log file log.file names, or the default one.
func openLogger(cfg *config.Config, stack *scope.Stack) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	path := cfg.Log.File
	if path == "" {
		path = config.DefaultPaths().LogFile()
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, err
	}
	scope.Use(stack, f)
	return logging.New(&logging.Config{Output: f, Level: level}), nil
}

// openResume locks and opens the resume store and loads the context saved
// under name. A missing or unreadable record starts a fresh session.
func openResume(ctx context.Context, cfg *config.Config, name string, stack *scope.Stack, logger *slog.Logger) (storage.Store, *picker.Context, error) {
	path, err := resumeDBPath(cfg)
	if err != nil {
		return nil, nil, err
	}
	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return nil, nil, err
	}
	scope.Use(stack, lock)

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open resume store: %w", err)
	}
	scope.Use(stack, store)

	pc, err := store.LoadContext(ctx, name)
	switch {
	case errors.Is(err, storage.ErrContextNotFound):
		return store, nil, nil
	case err != nil:
		logger.Warn("failed to load resume context", "name", name, "error", err)
		return store, nil, nil
	}
	logger.Debug("resuming", "name", name, "query", pc.Query, "index", pc.Index, "selected", len(pc.Selected))
	return store, pc, nil
}

// saveResume stores pc under name and prunes records older than maxAgeDays.
// Failures are logged; they never fail the session.
func saveResume(ctx context.Context, store storage.Store, name string, pc picker.Context, maxAgeDays int, logger *slog.Logger) {
	if err := store.SaveContext(ctx, name, pc); err != nil {
		logger.Warn("failed to save resume context", "name", name, "error", err)
		return
	}
	if maxAgeDays <= 0 {
		return
	}
	n, err := store.PruneContexts(ctx, time.Now().AddDate(0, 0, -maxAgeDays))
	if err != nil {
		logger.Warn("failed to prune resume contexts", "error", err)
		return
	}
	if n > 0 {
		logger.Debug("pruned resume contexts", "count", n)
	}
}

// sanitizeQuery strips control characters and validates the query string.
func sanitizeQuery(q string) (string, error) {
	if q == "" {
		return "", nil
	}

	// Reject newlines before stripping.
	if strings.ContainsAny(q, "\n\r") {
		return "", errors.New("query must not contain newlines")
	}

	// Strip control characters (0x00-0x1F) except tab (0x09).
	var b strings.Builder
	b.Grow(len(q))
	for _, r := range q {
		if r <= 0x1F && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	result := b.String()

	if len(result) > maxQueryLen {
		cut := maxQueryLen
		for cut > 0 && !utf8.RuneStart(result[cut]) {
			cut--
		}
		result = result[:cut]
	}
	return result, nil
}
