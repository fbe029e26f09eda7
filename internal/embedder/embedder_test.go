package embedder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/indexer"
	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/logging"
	"github.com/qmd-dev/qmd/internal/store"
)

type fakeProvider struct {
	dim        int
	alwaysFail bool
	calls      int
}

func (f *fakeProvider) Embed(ctx context.Context, text string, opts llm.EmbedOptions) (*llm.EmbedResult, error) {
	f.calls++
	if f.alwaysFail {
		return nil, assertErr
	}
	vec := make([]float32, f.dim)
	vec[0] = 1
	return &llm.EmbedResult{Embedding: vec, Model: opts.Model}, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	return &llm.GenerateResult{Text: "yes", Done: true}, nil
}

func (f *fakeProvider) Rerank(ctx context.Context, query string, docs []string, opts llm.RerankOptions) (*llm.RerankResult, error) {
	return &llm.RerankResult{}, nil
}

func (f *fakeProvider) ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error) {
	return []string{query}, nil
}

func (f *fakeProvider) ModelExists(ctx context.Context, model string) (*llm.ModelInfo, error) {
	return &llm.ModelInfo{Name: model, Exists: true}, nil
}

func (f *fakeProvider) PullModel(ctx context.Context, model string, onProgress llm.ProgressFunc) (bool, error) {
	return true, nil
}

var assertErr = &providerError{"embed failed"}

type providerError struct{ msg string }

func (e *providerError) Error() string { return e.msg }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "qmd.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmbedDocuments_FixesDimensionFromFirstEmbed(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "the quick brown fox")

	ix := indexer.New(s, logging.Nop())
	_, err := ix.IndexFiles(dir, "**/*.md", indexer.Options{}, nil)
	require.NoError(t, err)

	provider := &fakeProvider{dim: 8}
	e := New(s, provider, logging.Nop())

	result, err := e.EmbedDocuments(context.Background(), Options{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.HashesEmbedded)
	assert.Equal(t, 1, result.ChunksEmbedded)

	vectors := store.NewVectors(s)
	assert.Equal(t, 8, vectors.Dimension())
}

func TestEmbedDocuments_SkipsAlreadyEmbedded(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "the quick brown fox")

	ix := indexer.New(s, logging.Nop())
	_, err := ix.IndexFiles(dir, "**/*.md", indexer.Options{}, nil)
	require.NoError(t, err)

	provider := &fakeProvider{dim: 8}
	e := New(s, provider, logging.Nop())

	_, err = e.EmbedDocuments(context.Background(), Options{Model: "m"}, nil)
	require.NoError(t, err)

	result, err := e.EmbedDocuments(context.Background(), Options{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.HashesEmbedded)
}

func TestEmbedDocuments_ForceReEmbeds(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "the quick brown fox")

	ix := indexer.New(s, logging.Nop())
	_, err := ix.IndexFiles(dir, "**/*.md", indexer.Options{}, nil)
	require.NoError(t, err)

	provider := &fakeProvider{dim: 8}
	e := New(s, provider, logging.Nop())

	_, err = e.EmbedDocuments(context.Background(), Options{Model: "m"}, nil)
	require.NoError(t, err)

	result, err := e.EmbedDocuments(context.Background(), Options{Model: "m", Force: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.HashesEmbedded)
}

func TestEmbedDocuments_ProviderFailureIsNonFatal(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "the quick brown fox")

	ix := indexer.New(s, logging.Nop())
	_, err := ix.IndexFiles(dir, "**/*.md", indexer.Options{}, nil)
	require.NoError(t, err)

	provider := &fakeProvider{dim: 8, alwaysFail: true}
	e := New(s, provider, logging.Nop())

	result, err := e.EmbedDocuments(context.Background(), Options{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.HashesEmbedded)
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
