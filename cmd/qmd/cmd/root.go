// Package cmd provides the CLI commands for qmd.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/config"
	"github.com/qmd-dev/qmd/internal/engine"
	"github.com/qmd-dev/qmd/internal/logging"
	"github.com/qmd-dev/qmd/pkg/version"
)

var (
	configPath string
	eng        *engine.Engine
)

// NewRootCmd creates the root command for the qmd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qmd",
		Short: "A content-addressed markdown search engine",
		Long: `qmd indexes markdown files into a local SQLite store and serves
hybrid lexical and semantic search over them, either directly from the
command line or as an MCP tool server for AI agents.`,
		Version:           version.Short(),
		PersistentPreRunE: openEngine,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if eng != nil {
				return eng.Close()
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("qmd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a qmd config file")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVSearchCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// commandsWithoutEngine lists subcommands that must not trigger opening
// (and implicitly creating) the store, since they answer without
// touching indexed data.
var commandsWithoutEngine = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

// openEngine builds the process-lifetime Engine every subcommand shares
// (spec.md §9: one Engine per frontend lifetime, torn down on exit).
func openEngine(cmd *cobra.Command, args []string) error {
	if commandsWithoutEngine[cmd.Name()] {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	e, err := engine.Open(cfg, logging.New(logging.DefaultConfig()))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	eng = e
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
