package search

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/logging"
	"github.com/qmd-dev/qmd/internal/store"
)

func newSearchTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "qmd.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type stubExpandProvider struct {
	text  string
	calls int
	err   error
}

func (p *stubExpandProvider) Embed(ctx context.Context, text string, opts llm.EmbedOptions) (*llm.EmbedResult, error) {
	return nil, nil
}
func (p *stubExpandProvider) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	return nil, nil
}
func (p *stubExpandProvider) Rerank(ctx context.Context, query string, docs []string, opts llm.RerankOptions) (*llm.RerankResult, error) {
	return nil, nil
}
func (p *stubExpandProvider) ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return append([]string{query}, splitNonEmptyLines(p.text)...), nil
}
func (p *stubExpandProvider) ModelExists(ctx context.Context, model string) (*llm.ModelInfo, error) {
	return nil, nil
}
func (p *stubExpandProvider) PullModel(ctx context.Context, model string, onProgress llm.ProgressFunc) (bool, error) {
	return false, nil
}

func TestExpandQuery_ParsesAndCaches(t *testing.T) {
	s := newSearchTestStore(t)
	cache := store.NewCache(s)
	provider := &stubExpandProvider{text: "how to configure auth\nsetting up authentication"}

	out, err := ExpandQuery(context.Background(), cache, provider, "auth setup", "m", 2)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "auth setup", out[0])
	assert.Equal(t, 1, provider.calls)

	out2, err := ExpandQuery(context.Background(), cache, provider, "auth setup", "m", 2)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
	assert.Equal(t, 1, provider.calls, "second call should be served from cache")
}

func TestExpandQuery_ProviderFailureDegradesToOriginal(t *testing.T) {
	s := newSearchTestStore(t)
	cache := store.NewCache(s)
	provider := &stubExpandProvider{err: assertExpandErr}

	out, err := ExpandQuery(context.Background(), cache, provider, "auth setup", "m", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth setup"}, out)
}

var assertExpandErr = &expandError{"boom"}

type expandError struct{ msg string }

func (e *expandError) Error() string { return e.msg }

func TestParseExpansionText_FiltersLengthAndThink(t *testing.T) {
	raw := "<think>reasoning here</think>okay\na valid line here\nxy\n" + strings.Repeat("x", 120)
	out := parseExpansionText(raw, 5)
	assert.Contains(t, out, "okay")
	assert.Contains(t, out, "a valid line here")
	assert.NotContains(t, out, "xy")
}
