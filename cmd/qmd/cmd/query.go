package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/output"
	"github.com/qmd-dev/qmd/internal/search"
)

func newQueryCmd() *cobra.Command {
	var (
		limit      int
		collection string
		minScore   float64
		format     string
		rerank     bool
		expand     bool
	)

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Hybrid search: FTS + vector, fused by RRF, with optional expansion and reranking",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if !cmd.Flags().Changed("rerank") {
				rerank = eng.Config.Search.RerankEnabled
			}
			opts := eng.HybridSearchOptions(search.Options{
				CollectionName: collection,
				Limit:          limit,
				MinScore:       minScore,
			}, rerank, expand)

			hits, err := eng.Search.SearchHybrid(cmd.Context(), query, opts)
			if err != nil {
				output.WriteError(cmd.ErrOrStderr(), err)
				return err
			}
			return renderHits(cmd, hits, format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "restrict to one collection")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "drop results scoring below this")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json")
	cmd.Flags().BoolVar(&rerank, "rerank", false, "rerank fused results with the rerank model (defaults to config's rerankEnabled)")
	cmd.Flags().BoolVar(&expand, "expand", true, "expand the query into related terms before searching")

	return cmd
}
