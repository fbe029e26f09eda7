// Package search implements SearchEngine's four public operations
// (spec.md §4.6): searchFTS, searchVector, expandQuery, searchHybrid.
// Grounded on the teacher's internal/search/fusion.go (RRF) and
// internal/search/reranker.go (rerank contract), generalized from a
// fixed two-list BM25/vector fusion to spec.md's N-weighted-list RRF.
package search

// Hit is a single search result, uniform across FTS, vector, and hybrid
// operations (spec.md §4.6).
type Hit struct {
	DocumentID     int64
	CollectionName string
	Path           string
	Title          string
	Hash           string
	Score          float64
	Source         string // "fts", "vec", or "hybrid"
	ChunkPos       int
	Snippet        string
}

// Options configures a single search call.
type Options struct {
	CollectionName string
	Limit          int
	MinScore       float64
}

// HybridOptions configures searchHybrid, extending Options with the
// models used for query expansion, embedding, and reranking.
type HybridOptions struct {
	Options
	QueryModel  string
	EmbedModel  string
	RerankModel string
	Rerank      bool
	Expand      bool
}
