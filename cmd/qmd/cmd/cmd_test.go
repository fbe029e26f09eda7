package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/config"
	"github.com/qmd-dev/qmd/internal/embedder"
	"github.com/qmd-dev/qmd/internal/engine"
	"github.com/qmd-dev/qmd/internal/indexer"
	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/logging"
	"github.com/qmd-dev/qmd/internal/search"
	"github.com/qmd-dev/qmd/internal/store"
)

// fakeProvider is a minimal llm.Provider for command-level tests that
// never talk to a real Ollama instance.
type fakeProvider struct{ dim int }

func (p *fakeProvider) Embed(ctx context.Context, text string, opts llm.EmbedOptions) (*llm.EmbedResult, error) {
	vec := make([]float32, p.dim)
	vec[0] = 1
	return &llm.EmbedResult{Embedding: vec, Model: opts.Model}, nil
}
func (p *fakeProvider) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	return &llm.GenerateResult{Text: "yes"}, nil
}
func (p *fakeProvider) Rerank(ctx context.Context, query string, docs []string, opts llm.RerankOptions) (*llm.RerankResult, error) {
	res := &llm.RerankResult{Model: opts.Model}
	for _, d := range docs {
		res.Results = append(res.Results, llm.RerankDoc{File: d, Score: 0.8})
	}
	return res, nil
}
func (p *fakeProvider) ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error) {
	return []string{query}, nil
}
func (p *fakeProvider) ModelExists(ctx context.Context, model string) (*llm.ModelInfo, error) {
	return &llm.ModelInfo{Name: model, Exists: true}, nil
}
func (p *fakeProvider) PullModel(ctx context.Context, model string, onProgress llm.ProgressFunc) (bool, error) {
	return true, nil
}

// withTestEngine points the package-level eng at a fresh Engine backed by
// a database file in the test's temp directory for the duration of the
// test, bypassing openEngine/config.Load so commands never touch the
// user's configured store.
func withTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "qmd.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := &engine.Engine{
		Config:      config.Default(),
		Store:       s,
		Collections: store.NewCollections(s),
		Documents:   store.NewDocuments(s),
		Content:     store.NewContent(s),
		Contexts:    store.NewContexts(s),
		Vectors:     store.NewVectors(s),
		FTS:         store.NewFTS(s),
		Cache:       store.NewCache(s),
		Provider:    &fakeProvider{dim: 4},
	}
	e.Search = &search.Engine{
		FTS:         e.FTS,
		Vectors:     e.Vectors,
		Documents:   e.Documents,
		Collections: e.Collections,
		Content:     e.Content,
		Cache:       e.Cache,
		Provider:    e.Provider,
	}
	e.Indexer = indexer.New(s, logging.Nop())
	e.Embedder = embedder.New(s, e.Provider, logging.Nop())

	prev := eng
	eng = e
	t.Cleanup(func() { eng = prev })
	return e
}

func seedTestDocument(t *testing.T, e *engine.Engine) (collectionName, relPath string) {
	t.Helper()
	coll, _, err := e.Collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, e.Content.Insert("h1", "the quick brown fox jumps over the lazy dog"))
	_, err = e.Documents.Create(coll.ID, "notes.md", "Notes", "h1", time.Now())
	require.NoError(t, err)
	return coll.Name, "notes.md"
}
