package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/output"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report indexed collections and configured model defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	colls, err := eng.Collections.List()
	if err != nil {
		output.WriteError(cmd.ErrOrStderr(), err)
		return err
	}

	for _, c := range colls {
		docs, err := eng.Documents.ListActive(c.Name)
		if err != nil {
			output.WriteError(cmd.ErrOrStderr(), err)
			return err
		}
		fmt.Fprintf(w, "%s: %d active document(s)\n", c.Name, len(docs))
	}
	if len(colls) == 0 {
		fmt.Fprintln(w, "no collections indexed")
	}

	fmt.Fprintf(w, "\ndefault_embed_model=%s\n", eng.Config.Search.DefaultEmbedModel)
	fmt.Fprintf(w, "default_query_model=%s\n", eng.Config.Search.DefaultQueryModel)
	fmt.Fprintf(w, "default_rerank_model=%s\n", eng.Config.Search.DefaultRerankModel)
	fmt.Fprintf(w, "rerank_enabled=%t\n", eng.Config.Search.RerankEnabled)
	return nil
}
