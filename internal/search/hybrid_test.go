package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

type hybridFakeProvider struct {
	dim int
}

func (p *hybridFakeProvider) Embed(ctx context.Context, text string, opts llm.EmbedOptions) (*llm.EmbedResult, error) {
	vec := make([]float32, p.dim)
	vec[0] = 1
	return &llm.EmbedResult{Embedding: vec, Model: opts.Model}, nil
}
func (p *hybridFakeProvider) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	return &llm.GenerateResult{Text: "yes"}, nil
}
func (p *hybridFakeProvider) Rerank(ctx context.Context, query string, docs []string, opts llm.RerankOptions) (*llm.RerankResult, error) {
	res := &llm.RerankResult{Model: opts.Model}
	for _, d := range docs {
		res.Results = append(res.Results, llm.RerankDoc{File: d, Score: 0.8})
	}
	return res, nil
}
func (p *hybridFakeProvider) ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error) {
	return []string{query}, nil
}
func (p *hybridFakeProvider) ModelExists(ctx context.Context, model string) (*llm.ModelInfo, error) {
	return &llm.ModelInfo{Name: model, Exists: true}, nil
}
func (p *hybridFakeProvider) PullModel(ctx context.Context, model string, onProgress llm.ProgressFunc) (bool, error) {
	return true, nil
}

func newHybridTestEngine(t *testing.T, provider llm.Provider) (*Engine, *store.Collections, *store.Documents, *store.Content) {
	t.Helper()
	s := newSearchTestStore(t)
	e := &Engine{
		FTS:         store.NewFTS(s),
		Vectors:     store.NewVectors(s),
		Documents:   store.NewDocuments(s),
		Collections: store.NewCollections(s),
		Content:     store.NewContent(s),
		Cache:       store.NewCache(s),
		Provider:    provider,
	}
	return e, e.Collections, e.Documents, e.Content
}

func TestSearchHybrid_FindsDocumentByKeyword(t *testing.T) {
	provider := &hybridFakeProvider{dim: 4}
	e, collections, documents, content := newHybridTestEngine(t, provider)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, content.Insert("h1", "the api authentication guide explains oauth flows"))
	_, err = documents.Create(coll.ID, "auth.md", "Auth Guide", "h1", time.Now())
	require.NoError(t, err)
	require.NoError(t, e.Vectors.EnsureVecTable(4))
	require.NoError(t, e.Vectors.Insert(store.ContentVector{Hash: "h1", Seq: 0, Model: "m", EmbeddedAt: time.Now()}, []float32{1, 0, 0, 0}))

	hits, err := e.SearchHybrid(context.Background(), "authentication", HybridOptions{
		Options:    Options{Limit: 10},
		EmbedModel: "m",
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "auth.md", hits[0].Path)
	assert.Equal(t, "hybrid", hits[0].Source)
}

func TestSearchHybrid_DegradesToFTSOnlyWithoutVectors(t *testing.T) {
	provider := &hybridFakeProvider{dim: 4}
	e, collections, documents, content := newHybridTestEngine(t, provider)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, content.Insert("h1", "the api authentication guide"))
	_, err = documents.Create(coll.ID, "auth.md", "Auth Guide", "h1", time.Now())
	require.NoError(t, err)

	hits, err := e.SearchHybrid(context.Background(), "authentication", HybridOptions{
		Options:    Options{Limit: 10},
		EmbedModel: "m",
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "auth.md", hits[0].Path)
}

func TestSearchHybrid_WithRerankBlendsScores(t *testing.T) {
	provider := &hybridFakeProvider{dim: 4}
	e, collections, documents, content := newHybridTestEngine(t, provider)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, content.Insert("h1", "the api authentication guide"))
	_, err = documents.Create(coll.ID, "auth.md", "Auth Guide", "h1", time.Now())
	require.NoError(t, err)

	hits, err := e.SearchHybrid(context.Background(), "authentication", HybridOptions{
		Options:     Options{Limit: 10},
		EmbedModel:  "m",
		Rerank:      true,
		RerankModel: "m",
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearchHybrid_MinScoreFiltersOutLowHits(t *testing.T) {
	provider := &hybridFakeProvider{dim: 4}
	e, collections, documents, content := newHybridTestEngine(t, provider)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, content.Insert("h1", "the api authentication guide"))
	_, err = documents.Create(coll.ID, "auth.md", "Auth Guide", "h1", time.Now())
	require.NoError(t, err)

	hits, err := e.SearchHybrid(context.Background(), "authentication", HybridOptions{
		Options:    Options{Limit: 10, MinScore: 1000},
		EmbedModel: "m",
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
