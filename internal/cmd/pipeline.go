package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"

	"github.com/runger/sift/internal/builtin"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/picker"
	"github.com/runger/sift/internal/scope"
)

// pipeline is the set of extensions one picker session runs with.
type pipeline struct {
	source       extension.Source
	transformers []extension.Transformer
	projectors   []extension.Projector
	renderers    []extension.Renderer
	previewers   []extension.Previewer
	action       extension.Action
}

// buildPipeline assembles the extensions cfg selects. Resources that must
// outlive the build (open files, the Lua state) are released by stack.
func buildPipeline(cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger, stack *scope.Stack) (*pipeline, error) {
	src, err := buildSource(cfg.Source, args, stdin, stack)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	transformers, err := buildTransformers(cfg.Pipeline, stack)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	projectors, err := buildProjectors(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &pipeline{
		source:       src,
		transformers: transformers,
		projectors:   projectors,
		renderers:    buildRenderers(cfg.Render),
		previewers:   buildPreviewers(cfg.Preview),
		action:       buildAction(cfg.Action, stdout, logger),
	}, nil
}

func buildSource(s config.SourceConfig, args []string, stdin io.Reader, stack *scope.Stack) (extension.Source, error) {
	switch s.Kind {
	case "stdin":
		if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return nil, errors.New("no items: pipe them to stdin or choose a --source")
		}
		return builtin.Lines{Reader: stdin}, nil
	case "list":
		if len(args) == 0 {
			return nil, errors.New("list source needs items as arguments")
		}
		return builtin.Values(args...), nil
	case "command":
		if s.Command == "" {
			return nil, errors.New("command source needs --command")
		}
		return builtin.Command{Line: s.Command}, nil
	case "file":
		if s.Path == "" {
			return nil, errors.New("file source needs --path")
		}
		return builtin.File{Path: s.Path, Follow: s.Follow}, nil
	case "walk":
		root := s.Path
		if root == "" {
			root = "."
		}
		return builtin.Walk{Root: root, Hidden: s.Hidden}, nil
	case "history":
		return builtin.History{Shell: s.Shell, Path: s.Path}, nil
	case "jsonl":
		r := stdin
		if s.Path != "" {
			f, err := os.Open(s.Path)
			if err != nil {
				return nil, err
			}
			scope.Use(stack, f)
			r = f
		}
		return builtin.JSONLines{Reader: r, Value: s.JSONValue, Label: s.JSONLabel, Detail: s.JSONDetail}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

func buildTransformers(p config.PipelineConfig, stack *scope.Stack) ([]extension.Transformer, error) {
	var out []extension.Transformer
	if p.Sanitize {
		out = append(out, builtin.Sanitize{})
	}
	if p.Redact {
		out = append(out, builtin.Redact{})
	}
	if p.LuaScript != "" {
		script, err := os.ReadFile(p.LuaScript)
		if err != nil {
			return nil, fmt.Errorf("read lua script: %w", err)
		}
		t, err := builtin.NewLua(string(script))
		if err != nil {
			return nil, err
		}
		out = append(out, scope.Use(stack, t))
	}
	if p.Unique != "" {
		out = append(out, builtin.Unique{Attr: builtin.ParseAttr(p.Unique)})
	}
	return out, nil
}

func buildProjectors(p config.PipelineConfig) ([]extension.Projector, error) {
	var out []extension.Projector
	if p.Sort != "" {
		tag := language.Und
		if p.SortLocale != "" {
			var err error
			if tag, err = language.Parse(p.SortLocale); err != nil {
				return nil, fmt.Errorf("sort locale: %w", err)
			}
		}
		out = append(out, builtin.LexicalSort{Attr: builtin.ParseAttr(p.Sort), Reverse: p.SortReverse, Tag: tag})
	}
	if p.Filter {
		out = append(out, builtin.Filter{})
	}
	return out, nil
}

func buildRenderers(r config.RenderConfig) []extension.Renderer {
	var out []extension.Renderer
	if r.SmartPath {
		out = append(out, builtin.SmartPath{})
	}
	if r.Truncate {
		// The selector row draws a cursor and a selection mark.
		out = append(out, builtin.Truncate{Reserve: 2})
	}
	return out
}

func buildPreviewers(p config.PreviewConfig) []extension.Previewer {
	switch p.Kind {
	case "file":
		return []extension.Previewer{
			builtin.FilePreview{PathAttr: p.PathAttr, LineAttr: p.LineAttr, ColumnAttr: p.ColumnAttr},
			builtin.DetailPreview{},
		}
	case "detail":
		return []extension.Previewer{builtin.DetailPreview{}}
	default:
		return nil
	}
}

func buildAction(a config.ActionConfig, stdout io.Writer, logger *slog.Logger) extension.Action {
	switch a.Kind {
	case "yank":
		return builtin.Yank{}
	case "open":
		return builtin.Open{Command: a.OpenCommand, PathAttr: a.PathAttr, Logger: logger}
	default:
		return builtin.Print{W: stdout}
	}
}

// pickerOptions maps the picker section onto session options.
func pickerOptions(p config.PickerConfig, logger *slog.Logger) picker.Options {
	opts := picker.DefaultOptions()
	opts.Title = p.Title
	opts.Selectable = p.Selectable
	opts.Layout = picker.LayoutParams{
		Title:        p.Title,
		WidthRatio:   p.WidthRatio,
		WidthMin:     p.WidthMin,
		WidthMax:     p.WidthMax,
		HeightRatio:  p.HeightRatio,
		HeightMin:    p.HeightMin,
		HeightMax:    p.HeightMax,
		PreviewRatio: p.PreviewRatio,
		Border:       p.Border,
	}
	opts.RedrawInterval = time.Duration(p.RedrawIntervalMs) * time.Millisecond
	opts.Threshold = p.Threshold
	opts.Scrolloff = p.Scrolloff
	if p.HeadSymbol != "" {
		opts.Query.HeadSymbol = p.HeadSymbol
	}
	if p.FailSymbol != "" {
		opts.Query.FailSymbol = p.FailSymbol
	}
	opts.Logger = logger
	return opts
}
