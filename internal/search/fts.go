package search

import (
	"strings"
	"unicode"

	"github.com/qmd-dev/qmd/internal/store"
)

// SearchFTS tokenizes query, builds a prefix-match FTS5 query string, and
// returns hits sorted most-relevant-first (spec.md §4.6.1).
func SearchFTS(fts *store.FTS, query string, opts Options) ([]Hit, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := fts.SearchFTS(ftsQuery, limit, opts.CollectionName, 10.0, 1.0)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, Hit{
			DocumentID:     r.DocumentID,
			CollectionName: r.CollectionName,
			Path:           r.Path,
			Title:          r.Title,
			Hash:           r.Hash,
			Score:          absFloat(r.Score),
			Source:         "fts",
		})
	}
	return hits, nil
}

// buildFTSQuery sanitizes and tokenizes query per spec.md §4.6.1 steps 1-3.
func buildFTSQuery(query string) string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := sanitizeToken(f)
		if t != "" {
			tokens = append(tokens, `"`+t+`"*`)
		}
	}
	return strings.Join(tokens, " AND ")
}

func sanitizeToken(token string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(token) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
