package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/output"
	"github.com/qmd-dev/qmd/internal/search"
	"github.com/qmd-dev/qmd/internal/vpath"
)

func newSearchCmd() *cobra.Command {
	var (
		limit      int
		collection string
		minScore   float64
		format     string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Lexical (FTS5) search over indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			hits, err := search.SearchFTS(eng.FTS, query, search.Options{
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

	return cmd
}

// filterMinScore applies opts.MinScore, since SearchFTS and SearchVector
// return raw matches unfiltered.
func filterMinScore(hits []search.Hit, minScore float64) []search.Hit {
	if minScore <= 0 {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		if h.Score >= minScore {
			out = append(out, h)
		}
	}
	return out
}

func virtualPathFor(h search.Hit) string {
	return vpath.Path{Collection: h.CollectionName, RelPath: vpath.Encode(h.Path)}.String()
}

func renderHits(cmd *cobra.Command, hits []search.Hit, format string) error {
	w := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	output.WriteHits(w, hits, virtualPathFor)
	return nil
}
