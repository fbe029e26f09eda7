package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/output"
	"github.com/qmd-dev/qmd/internal/search"
)

func newVSearchCmd() *cobra.Command {
	var (
		limit      int
		collection string
		minScore   float64
		format     string
		model      string
	)

	cmd := &cobra.Command{
		Use:   "vsearch <query>",
		Short: "Semantic (vector) search over indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			m := model
			if m == "" {
				m = eng.Config.Search.DefaultEmbedModel
			}
			hits, err := search.SearchVector(cmd.Context(), eng.Vectors, eng.Documents, eng.Collections, eng.Provider, query, m, search.Options{
				CollectionName: collection,
				Limit:          limit,
				MinScore:       minScore,
			})
			if err != nil {
				output.WriteError(cmd.ErrOrStderr(), err)
				return err
			}
			hits = filterMinScore(hits, minScore)
			return renderHits(cmd, hits, format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "restrict to one collection")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "drop results scoring below this")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json")
	cmd.Flags().StringVar(&model, "model", "", "embedding model (defaults to config's defaultEmbedModel)")

	return cmd
}
