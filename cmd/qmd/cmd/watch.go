package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/logging"
	"github.com/qmd-dev/qmd/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		glob       string
		embedModel string
	)

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-index a directory whenever its files change",
		Long: `Watch runs index once immediately, then again every time
filesystem activity under path settles (spec.md's indexFiles
reconciliation is a full re-walk, so repeated runs are the supplemental
feature here, not incremental per-file updates).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			if err := runIndex(cmd, abs, glob, false, embedModel, false); err != nil {
				return err
			}

			w, err := watch.New(abs, watch.DefaultDebounce, logging.New(logging.DefaultConfig()))
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer func() { _ = w.Close() }()

			ctx := cmd.Context()
			go w.Run(ctx)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-w.Changes():
					fmt.Fprintln(cmd.ErrOrStderr(), "change detected, re-indexing")
					if err := runIndex(cmd, abs, glob, false, embedModel, false); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "re-index failed:", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&glob, "glob", "**/*.md", "glob pattern selecting files within the path")
	cmd.Flags().StringVar(&embedModel, "embed-model", "", "embedding model (defaults to config's defaultEmbedModel)")

	return cmd
}
