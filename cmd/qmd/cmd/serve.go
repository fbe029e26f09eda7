package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/logging"
	"github.com/qmd-dev/qmd/internal/mcptool"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run qmd as an MCP tool server over stdio",
		Long: `Serve exposes search, vsearch, query, get, multi_get, and status
as MCP tools, plus one resource per indexed document, over a
line-delimited stdio JSON-RPC channel for AI agents and editors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mcptool.NewServer(eng, logging.New(logging.DefaultConfig()))
			if err != nil {
				return fmt.Errorf("build MCP server: %w", err)
			}
			return srv.Serve(cmd.Context())
		},
	}
}
