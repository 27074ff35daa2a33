package builtin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/shlex"
	"github.com/tidwall/gjson"

	"github.com/runger/sift/internal/history"
	"github.com/runger/sift/internal/item"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

// List is a fixed source.
type List []item.SourceItem

// Values builds a List whose items carry only a value.
func Values(values ...string) List {
	l := make(List, len(values))
	for i, v := range values {
		l[i] = item.SourceItem{Value: v}
	}
	return l
}

// Stream yields the items in order.
func (l List) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		for _, s := range l {
			if err := ctx.Err(); err != nil {
				yield(item.SourceItem{}, err)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (l List) Description() string { return "list" }

type scanned struct {
	text string
	err  error
}

// readLines scans r on its own goroutine so that a blocked read never delays
// cancellation.
func readLines(ctx context.Context, r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		lines := make(chan scanned)
		stop := make(chan struct{})
		defer close(stop)

		go func() {
			defer close(lines)
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
			for sc.Scan() {
				select {
				case lines <- scanned{text: sc.Text()}:
				case <-stop:
					return
				}
			}
			if err := sc.Err(); err != nil {
				select {
				case lines <- scanned{err: err}:
				case <-stop:
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			case l, ok := <-lines:
				if !ok {
					return
				}
				if !yield(l.text, l.err) || l.err != nil {
					return
				}
			}
		}
	}
}

// Lines yields one item per line of Reader.
type Lines struct {
	Reader io.Reader
}

func (s Lines) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		for text, err := range readLines(ctx, s.Reader) {
			if !yield(item.SourceItem{Value: text}, err) {
				return
			}
		}
	}
}

func (s Lines) Description() string { return "lines" }

// Command runs a shell-split command line and yields its stdout lines.
type Command struct {
	Line string
	Dir  string
}

func (s Command) Description() string { return "command" }

func (s Command) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		args, err := shlex.Split(s.Line)
		if err != nil {
			yield(item.SourceItem{}, fmt.Errorf("parse command: %w", err))
			return
		}
		if len(args) == 0 {
			yield(item.SourceItem{}, errors.New("empty command"))
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: the command line is the user's own input
		cmd.Dir = s.Dir
		var stderr tailBuffer
		cmd.Stderr = &stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			yield(item.SourceItem{}, err)
			return
		}
		if err := cmd.Start(); err != nil {
			yield(item.SourceItem{}, fmt.Errorf("start %s: %w", args[0], err))
			return
		}

		for text, err := range readLines(ctx, stdout) {
			if err != nil || !yield(item.SourceItem{Value: text}, nil) {
				cancel()
				_ = cmd.Wait()
				if err != nil {
					yield(item.SourceItem{}, err)
				}
				return
			}
		}
		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			} else if msg := stderr.String(); msg != "" {
				err = fmt.Errorf("%s: %w: %s", args[0], err, msg)
			}
			yield(item.SourceItem{}, err)
		}
	}
}

// tailBuffer keeps the last few hundred bytes written to it.
type tailBuffer struct {
	buf []byte
}

const tailSize = 512

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > tailSize {
		b.buf = b.buf[len(b.buf)-tailSize:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string { return strings.TrimSpace(string(b.buf)) }

// File yields the lines of a file. With Follow the source never ends: lines
// appended later are yielded as they are written.
type File struct {
	Path   string
	Follow bool
}

func (s File) Description() string { return "file " + s.Path }

func (s File) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		f, err := os.Open(s.Path)
		if err != nil {
			yield(item.SourceItem{}, err)
			return
		}
		defer f.Close()

		n := 0
		emit := func(text string) bool {
			n++
			return yield(item.SourceItem{
				Value:  text,
				Detail: map[string]any{"path": s.Path, "line": n},
			}, nil)
		}

		if !s.Follow {
			for text, err := range readLines(ctx, f) {
				if err != nil {
					yield(item.SourceItem{}, err)
					return
				}
				if !emit(text) {
					return
				}
			}
			return
		}
		if err := s.follow(ctx, f, emit); err != nil {
			yield(item.SourceItem{}, err)
		}
	}
}

// follow reads f to the end, then waits for write notifications and reads
// what was appended. A trailing partial line is held back until its newline
// arrives.
func (s File) follow(ctx context.Context, f *os.File, emit func(string) bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.Path, err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.Path); err != nil {
		return fmt.Errorf("watch %s: %w", s.Path, err)
	}

	r := bufio.NewReader(f)
	var partial strings.Builder
	for {
		for {
			chunk, err := r.ReadString('\n')
			partial.WriteString(chunk)
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			text := strings.TrimSuffix(partial.String(), "\n")
			partial.Reset()
			if !emit(strings.TrimSuffix(text, "\r")) {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", s.Path, err)
		}
	}
}

// Walk yields the files under Root, relative to it. Hidden entries are
// skipped unless Hidden is set.
type Walk struct {
	Root   string
	Hidden bool
}

func (s Walk) Description() string { return "walk " + s.Root }

func (s Walk) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		root := s.Root
		if root == "" {
			root = "."
		}
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err != nil {
				// Unreadable entries are skipped, not fatal.
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path != root && !s.Hidden && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			if !yield(item.SourceItem{Value: rel, Detail: map[string]any{"path": path}}, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(item.SourceItem{}, err)
		}
	}
}

// History yields shell history commands, newest first. Shell "" or "auto"
// detects the shell from $SHELL; an empty Path uses the shell's default.
type History struct {
	Shell string
	Path  string
}

func (s History) Description() string { return "history" }

func (s History) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		var entries []history.Entry
		for e, err := range history.Read(ctx, s.Shell, s.Path) {
			if err != nil {
				yield(item.SourceItem{}, fmt.Errorf("read history: %w", err))
				return
			}
			entries = append(entries, e)
		}
		slices.Reverse(entries)

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				yield(item.SourceItem{}, err)
				return
			}
			si := item.SourceItem{Value: e.Command, Detail: map[string]any{}}
			if pretty := PrettyEscapeLiterals(e.Command); pretty != e.Command {
				si.Label = pretty
			}
			if !e.Timestamp.IsZero() {
				si.Detail["timestamp"] = e.Timestamp.Unix()
			}
			if !yield(si, nil) {
				return
			}
		}
	}
}

// JSONLines yields one item per JSON object line. Value and Label are gjson
// paths; an empty Value uses the raw line. Each Detail path is stored under
// its own name.
type JSONLines struct {
	Reader io.Reader
	Value  string
	Label  string
	Detail []string
}

func (s JSONLines) Description() string { return "jsonl" }

func (s JSONLines) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return func(yield func(item.SourceItem, error) bool) {
		n := 0
		for line, err := range readLines(ctx, s.Reader) {
			if err != nil {
				yield(item.SourceItem{}, err)
				return
			}
			n++
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !gjson.Valid(line) {
				yield(item.SourceItem{}, fmt.Errorf("line %d: invalid JSON", n))
				return
			}
			if !yield(s.decode(line), nil) {
				return
			}
		}
	}
}

func (s JSONLines) decode(line string) item.SourceItem {
	si := item.SourceItem{Value: line, Detail: make(map[string]any, len(s.Detail))}
	if s.Value != "" {
		si.Value = gjson.Get(line, s.Value).String()
	}
	if s.Label != "" {
		si.Label = gjson.Get(line, s.Label).String()
	}
	for _, path := range s.Detail {
		if r := gjson.Get(line, path); r.Exists() {
			si.Detail[path] = r.Value()
		}
	}
	return si
}
