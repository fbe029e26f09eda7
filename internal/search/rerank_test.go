package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

type stubRerankProvider struct {
	scores map[string]float64 // doc text -> score
	fail   bool
}

func (p *stubRerankProvider) Embed(ctx context.Context, text string, opts llm.EmbedOptions) (*llm.EmbedResult, error) {
	return nil, nil
}
func (p *stubRerankProvider) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	return nil, nil
}
func (p *stubRerankProvider) Rerank(ctx context.Context, query string, docs []string, opts llm.RerankOptions) (*llm.RerankResult, error) {
	if p.fail {
		return nil, assertRerankErr
	}
	res := &llm.RerankResult{Model: opts.Model}
	for _, d := range docs {
		score := p.scores[d]
		res.Results = append(res.Results, llm.RerankDoc{File: d, Score: score})
	}
	return res, nil
}
func (p *stubRerankProvider) ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error) {
	return []string{query}, nil
}
func (p *stubRerankProvider) ModelExists(ctx context.Context, model string) (*llm.ModelInfo, error) {
	return nil, nil
}
func (p *stubRerankProvider) PullModel(ctx context.Context, model string, onProgress llm.ProgressFunc) (bool, error) {
	return false, nil
}

var assertRerankErr = &expandError{"rerank failed"}

func TestRerank_OverwritesScoreFromProvider(t *testing.T) {
	s := newSearchTestStore(t)
	content := store.NewContent(s)
	require.NoError(t, content.Insert("hash-a", "alpha content"))
	require.NoError(t, content.Insert("hash-b", "beta content"))

	hits := []Hit{
		{Hash: "hash-a", Score: 0.1},
		{Hash: "hash-b", Score: 0.9},
	}
	provider := &stubRerankProvider{scores: map[string]float64{
		"alpha content": 0.95,
		"beta content":  0.2,
	}}

	out, err := Rerank(context.Background(), content, provider, "query", hits, "m")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.95, out[0].Score, 1e-9)
	assert.InDelta(t, 0.2, out[1].Score, 1e-9)
}

func TestRerank_MissingContentFallsBackToTitle(t *testing.T) {
	s := newSearchTestStore(t)
	content := store.NewContent(s)

	hits := []Hit{{Hash: "missing", Title: "Untitled"}}
	provider := &stubRerankProvider{scores: map[string]float64{"Untitled": 0.5}}

	out, err := Rerank(context.Background(), content, provider, "query", hits, "m")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.5, out[0].Score, 1e-9)
}

func TestRerank_FailedBatchKeepsOriginalScore(t *testing.T) {
	s := newSearchTestStore(t)
	content := store.NewContent(s)
	require.NoError(t, content.Insert("hash-a", "alpha content"))

	hits := []Hit{{Hash: "hash-a", Score: 0.42}}
	provider := &stubRerankProvider{fail: true}

	out, err := Rerank(context.Background(), content, provider, "query", hits, "m")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.42, out[0].Score, 1e-9)
}

func TestRerank_EmptyHitsReturnsEmpty(t *testing.T) {
	s := newSearchTestStore(t)
	content := store.NewContent(s)
	out, err := Rerank(context.Background(), content, &stubRerankProvider{}, "q", nil, "m")
	require.NoError(t, err)
	assert.Empty(t, out)
}
