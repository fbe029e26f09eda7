package search

import (
	"context"
	"sort"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

// SearchVector embeds query and runs a KNN search, grouping hits by
// addressable document and keeping only the closest chunk per document
// (spec.md §4.6.2).
func SearchVector(
	ctx context.Context,
	vectors *store.Vectors,
	documents *store.Documents,
	collections *store.Collections,
	provider llm.Provider,
	query, model string,
	opts Options,
) ([]Hit, error) {
	if vectors.Dimension() == 0 {
		return nil, nil
	}

	embedded, err := provider.Embed(ctx, query, llm.EmbedOptions{Model: model, IsQuery: true})
	if err != nil || embedded == nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := vectors.SearchVectors(embedded.Embedding, limit*3, opts.CollectionName)
	if err != nil {
		return nil, err
	}

	// Group by addressable document (qmd://{collection}/{path}), not by
	// hash (spec.md §4.6.2 step 4): content dedup (spec.md §3) means two
	// active documents, possibly in different collections, can share a
	// hash, and each must be able to surface independently.
	type docKey struct {
		collectionID int64
		path         string
	}
	type candidate struct {
		doc *store.Document
		row store.VectorRow
	}

	best := make(map[docKey]candidate)
	docsByHash := make(map[string][]*store.Document)
	for _, r := range rows {
		docs, ok := docsByHash[r.Hash]
		if !ok {
			docs, err = documents.ListActiveByHash(r.Hash)
			if err != nil {
				return nil, err
			}
			docsByHash[r.Hash] = docs
		}
		for _, doc := range docs {
			if opts.CollectionName != "" {
				coll, err := collections.GetByID(doc.CollectionID)
				if err != nil {
					return nil, err
				}
				if coll == nil || coll.Name != opts.CollectionName {
					continue
				}
			}
			key := docKey{collectionID: doc.CollectionID, path: doc.Path}
			existing, ok := best[key]
			if !ok || r.Distance < existing.row.Distance {
				best[key] = candidate{doc: doc, row: r}
			}
		}
	}

	hits := make([]Hit, 0, len(best))
	for _, c := range best {
		coll, err := collections.GetByID(c.doc.CollectionID)
		if err != nil {
			return nil, err
		}
		collName := ""
		if coll != nil {
			collName = coll.Name
		}
		hits = append(hits, Hit{
			DocumentID:     c.doc.ID,
			CollectionName: collName,
			Path:           c.doc.Path,
			Title:          c.doc.Title,
			Hash:           c.doc.Hash,
			Score:          1.0 / (1.0 + float64(c.row.Distance)),
			Source:         "vec",
			ChunkPos:       c.row.Pos,
		})
	}

	// Score is a monotone transform of distance (higher score = closer), so
	// sorting descending by score is equivalent to spec.md's "ascending by
	// distance" ordering.
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
