package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/sift/internal/builtin"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/storage"
)

func newResumeCmd(opts *rootOptions) *cobra.Command {
	resumeCmd := &cobra.Command{
		Use:     "resume",
		Short:   "Manage saved picker sessions",
		GroupID: groupSetup,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(cfg *config.Config, store storage.Store) error {
				return listResume(cmd, store)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Forget a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(cfg *config.Config, store storage.Store) error {
				if err := store.DeleteContext(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s%s%s\n", colorCyan, args[0], colorReset)
				return nil
			})
		},
	}

	var days int
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Forget sessions older than resume.max_age_days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(cfg *config.Config, store storage.Store) error {
				age := cfg.Resume.MaxAgeDays
				if cmd.Flags().Changed("days") {
					age = days
				}
				n, err := store.PruneContexts(cmd.Context(), time.Now().AddDate(0, 0, -age))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d saved session(s)\n", n)
				return nil
			})
		},
	}
	pruneCmd.Flags().IntVar(&days, "days", 0, "age in days (default resume.max_age_days)")

	resumeCmd.AddCommand(deleteCmd, pruneCmd)
	return resumeCmd
}

// withStore loads the configuration, opens the resume store and runs fn.
func withStore(opts *rootOptions, fn func(*config.Config, storage.Store) error) error {
	cfg, err := config.LoadFromFile(configFilePath(opts))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// resumeDBPath returns resume.db_path, or the database under the data
// directory.
func resumeDBPath(cfg *config.Config) (string, error) {
	if cfg.Resume.DBPath != "" {
		return cfg.Resume.DBPath, nil
	}
	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	return paths.DatabaseFile(), nil
}

func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	path, err := resumeDBPath(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open resume store: %w", err)
	}
	return store, nil
}

func listResume(cmd *cobra.Command, store storage.Store) error {
	records, err := store.ListContexts(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "%sNo saved sessions%s\n", colorDim, colorReset)
		return nil
	}

	width := terminalWidth()
	for _, r := range records {
		head := fmt.Sprintf("%-16s %s  ", r.Name, r.SavedAt.Local().Format(time.DateTime))
		query := r.Context.Query
		if query == "" {
			query = "(empty query)"
		}
		query = builtin.MiddleTruncate(query, max(8, width-len(head)-16))
		fmt.Fprintf(out, "%s%s%s%s  %s%s%s\n", colorCyan, head, colorReset, query, colorDim, summary(r.Context.Index, len(r.Context.Selected)), colorReset)
	}
	return nil
}

func summary(index, selected int) string {
	parts := []string{fmt.Sprintf("cursor %d", index)}
	if selected > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", selected))
	}
	return strings.Join(parts, ", ")
}
