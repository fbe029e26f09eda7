package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

// hybridFuseLimit is how many fused candidates advance to the optional
// rerank/blend stage (spec.md §4.6.4 step 4, "top 30").
const hybridFuseLimit = 30

// Engine bundles the repositories and provider searchHybrid needs,
// grounded on the teacher's Engine composition root (internal/search/engine.go).
type Engine struct {
	FTS         *store.FTS
	Vectors     *store.Vectors
	Documents   *store.Documents
	Collections *store.Collections
	Content     *store.Content
	Cache       *store.Cache
	Provider    llm.Provider
}

// SearchHybrid runs spec.md §4.6.4's full pipeline: expand the query,
// fan out FTS + vector search per expanded query, fuse with weighted RRF,
// optionally rerank the top candidates, blend rerank and fusion scores,
// then filter/sort/limit.
func (e *Engine) SearchHybrid(ctx context.Context, query string, opts HybridOptions) ([]Hit, error) {
	queries := []string{query}
	if opts.Expand {
		expanded, err := ExpandQuery(ctx, e.Cache, e.Provider, query, opts.QueryModel, DefaultExpansionCount)
		if err != nil {
			return nil, err
		}
		queries = expanded
	}

	lists, err := e.gatherRankedLists(ctx, queries, opts)
	if err != nil {
		return nil, err
	}

	fused := Fuse(lists)
	if len(fused) > hybridFuseLimit {
		fused = fused[:hybridFuseLimit]
	}

	if opts.Rerank && len(fused) > 0 {
		reranked, err := Rerank(ctx, e.Content, e.Provider, query, fused, opts.RerankModel)
		if err != nil {
			return nil, err
		}
		fused = blendWithRerank(fused, reranked)
	}

	sort.Slice(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	out := make([]Hit, 0, limit)
	for _, h := range fused {
		if h.Score < opts.MinScore {
			continue
		}
		out = append(out, h)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// gatherRankedLists runs FTS and vector search for every expanded query
// concurrently (errgroup, grounded on the teacher's parallelSearch in
// internal/search/engine.go), weighting the original query's two lists at
// 2.0 and every expansion-derived list at 1.0 (spec.md §4.6.4 step 3).
func (e *Engine) gatherRankedLists(ctx context.Context, queries []string, opts HybridOptions) ([]RankedList, error) {
	lists := make([]RankedList, 2*len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		weight := 1.0
		if i == 0 {
			weight = 2.0
		}

		g.Go(func() error {
			hits, err := SearchFTS(e.FTS, q, opts.Options)
			if err != nil {
				return err
			}
			lists[2*i] = RankedList{Hits: hits, Weight: weight}
			return nil
		})
		g.Go(func() error {
			hits, err := SearchVector(gctx, e.Vectors, e.Documents, e.Collections, e.Provider, q, opts.EmbedModel, opts.Options)
			if err != nil {
				// A missing/unfixed vec table degrades hybrid to FTS-only
				// (spec.md §4.6.4, "State"); don't fail the whole search.
				lists[2*i+1] = RankedList{Weight: weight}
				return nil
			}
			lists[2*i+1] = RankedList{Hits: hits, Weight: weight}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

// blendWithRerank applies spec.md §4.6.4 step 6: rrf_rank is the
// candidate's 1-based position in the fused list; rrf_weight is 0.75 for
// rank<=3, 0.60 for rank<=10, else 0.40; blended = rrf_weight*(1/rrf_rank)
// + (1-rrf_weight)*rerank_score. fused and reranked must be the same
// slice in the same order (Rerank preserves order).
func blendWithRerank(fused, reranked []Hit) []Hit {
	out := make([]Hit, len(fused))
	for i := range fused {
		rrfRank := i + 1
		var rrfWeight float64
		switch {
		case rrfRank <= 3:
			rrfWeight = 0.75
		case rrfRank <= 10:
			rrfWeight = 0.60
		default:
			rrfWeight = 0.40
		}
		h := fused[i]
		rerankScore := h.Score
		if i < len(reranked) {
			rerankScore = reranked[i].Score
		}
		h.Score = rrfWeight*(1.0/float64(rrfRank)) + (1-rrfWeight)*rerankScore
		out[i] = h
	}
	return out
}
