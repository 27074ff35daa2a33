// Package cmd implements the sift command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes. These match the expectations of shell widgets:
//
//	0 = selection made (use the result)
//	1 = cancelled by user (keep original input)
//	2 = fallback (no TTY, bad flags, errors)
const (
	exitSuccess   = 0
	exitCancelled = 1
	exitFallback  = 2
)

// errCancelled ends a session the user dismissed.
var errCancelled = errors.New("cancelled")

// flagKeys maps picker flags onto the configuration keys they override.
var flagKeys = map[string]string{
	"source":       "source.kind",
	"command":      "source.command",
	"path":         "source.path",
	"follow":       "source.follow",
	"hidden":       "source.hidden",
	"shell":        "source.shell",
	"json-value":   "source.json_value",
	"json-label":   "source.json_label",
	"json-detail":  "source.json_detail",
	"title":        "picker.title",
	"selectable":   "picker.selectable",
	"threshold":    "picker.threshold",
	"border":       "picker.border",
	"alt-screen":   "picker.alt_screen",
	"redact":       "pipeline.redact",
	"unique":       "pipeline.unique",
	"lua":          "pipeline.lua_script",
	"sort":         "pipeline.sort",
	"reverse":      "pipeline.sort_reverse",
	"locale":       "pipeline.sort_locale",
	"no-filter":    "pipeline.filter",
	"smart-path":   "render.smart_path",
	"preview":      "preview.kind",
	"action":       "action.kind",
	"open-command": "action.open_command",
	"log-level":    "log.level",
}

// invertedFlags hold the negation of their configuration key.
var invertedFlags = map[string]bool{
	"no-filter": true,
}

// rootOptions holds the flags that are not configuration keys.
type rootOptions struct {
	configPath string
	query      string
	resume     string
}

// Execute runs sift and returns its exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	applyColorMode()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errCancelled):
		return exitCancelled
	default:
		fmt.Fprintf(stderr, "%ssift:%s %v\n", colorRed, colorReset, err)
		return exitFallback
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "sift [items...]",
		Short: "Incremental fuzzy picker for the terminal",
		Long: `sift - incremental fuzzy picker for the terminal

Items stream in from stdin, a command, a file, a directory walk, shell
history or JSON lines, and are filtered as you type. Accepted items are
printed to stdout, copied to the clipboard or opened.

Positional arguments are picked from directly.

Examples:
  git branch | sift
  sift --source walk --preview file
  sift --source history --unique value --redact
  sift --source command --command 'rg -n TODO' --preview file --action open`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyColorMode()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker(cmd, args, opts)
		},
	}

	f := root.Flags()
	f.String("source", "", "item source: stdin, list, command, file, walk, history or jsonl")
	f.String("command", "", "shell command whose output lines are items")
	f.String("path", "", "file, directory or history file to read")
	f.Bool("follow", false, "keep reading the file as it grows")
	f.Bool("hidden", false, "walk into hidden files and directories")
	f.String("shell", "", "history format: bash, zsh or fish (default $SHELL)")
	f.String("json-value", "", "gjson path of the item value")
	f.String("json-label", "", "gjson path of the item label")
	f.String("json-detail", "", "comma separated gjson paths kept as item details")
	f.String("title", "", "picker title")
	f.Bool("selectable", false, "allow selecting several items")
	f.Int("threshold", 0, "maximum number of collected items (0 = unbounded)")
	f.String("border", "", "border style: none, ascii, single, double or rounded")
	f.Bool("alt-screen", true, "draw on the alternate screen")
	f.Bool("redact", false, "mask credentials and flag destructive commands")
	f.String("unique", "", "drop items whose attribute was already seen")
	f.String("lua", "", "Lua script transforming each item")
	f.String("sort", "", "sort items by attribute")
	f.Bool("reverse", false, "reverse the sort order")
	f.String("locale", "", "BCP 47 language tag for sorting")
	f.Bool("no-filter", false, "show every item regardless of the query")
	f.Bool("smart-path", false, "shorten path items to fit the selector")
	f.String("preview", "", "previewer: file, detail or none")
	f.String("action", "", "accept action: print, yank or open")
	f.String("open-command", "", "command the open action runs")
	f.String("log-level", "", "log level: debug, info, warn or error")

	f.StringVarP(&opts.query, "query", "q", "", "initial query")
	f.StringVar(&opts.resume, "resume", "", "save and restore query, cursor and selection under this name")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $SIFT_CONFIG or ~/.config/sift/config.yaml)")
	root.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	root.AddGroup(&cobra.Group{ID: groupSetup, Title: "Setup:"})
	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newResumeCmd(opts))
	return root
}

const groupSetup = "setup"

// flagSetter is the part of config.Config that flags write through.
type flagSetter interface {
	Set(key, value string) error
}

// applyFlags writes every flag the user set onto cfg. Items given as
// arguments select the list source unless --source says otherwise.
func applyFlags(flags *pflag.FlagSet, cfg flagSetter, args []string) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		value := f.Value.String()
		if invertedFlags[f.Name] {
			if value == "true" {
				value = "false"
			} else {
				value = "true"
			}
		}
		if setErr := cfg.Set(key, value); setErr != nil {
			err = fmt.Errorf("--%s: %w", f.Name, setErr)
		}
	})
	if err != nil {
		return err
	}
	if len(args) > 0 && !flags.Changed("source") {
		return cfg.Set("source.kind", "list")
	}
	return nil
}
