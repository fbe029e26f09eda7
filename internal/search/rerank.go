package search

import (
	"context"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

// DefaultRerankBatchSize is the rerank batch size spec.md §4.6.4 names.
const DefaultRerankBatchSize = 5

// rerankSnippetBytes bounds how much body text is sent per document to
// keep rerank prompts small.
const rerankSnippetBytes = 2000

// Rerank asks provider.Rerank, DefaultRerankBatchSize hits at a time, for
// each hit's relevance to query and overwrites its Score accordingly
// (spec.md §4.6.4, "Rerank"). A hit whose content is absent is reranked
// on its Title instead; a batch whose rerank call fails keeps its
// incoming (fused) scores rather than failing the whole search.
func Rerank(ctx context.Context, content *store.Content, provider llm.Provider, query string, hits []Hit, model string) ([]Hit, error) {
	if len(hits) == 0 {
		return hits, nil
	}

	docs := make([]string, len(hits))
	for i, h := range hits {
		text, ok, err := content.Get(h.Hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			docs[i] = h.Title
			continue
		}
		if len(text) > rerankSnippetBytes {
			text = text[:rerankSnippetBytes]
		}
		docs[i] = text
	}

	out := make([]Hit, len(hits))
	copy(out, hits)

	for start := 0; start < len(docs); start += DefaultRerankBatchSize {
		end := start + DefaultRerankBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		res, err := provider.Rerank(ctx, query, batch, llm.RerankOptions{Model: model, BatchSize: DefaultRerankBatchSize})
		if err != nil || res == nil {
			// A failed batch leaves its hits at their fused score rather
			// than aborting the whole rerank pass.
			continue
		}
		for i, rd := range res.Results {
			if start+i >= len(out) {
				break
			}
			out[start+i].Score = rd.Score
		}
	}

	return out, nil
}
