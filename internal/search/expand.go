package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

// DefaultExpansionCount is expandQuery's default variation count.
const DefaultExpansionCount = 2

var thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ExpandQuery returns [query, ...variations], consulting cache before
// calling the provider (spec.md §4.6.3).
func ExpandQuery(ctx context.Context, cache *store.Cache, provider llm.Provider, query, model string, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultExpansionCount
	}

	key, err := store.GenerateKey("expandQuery", map[string]any{"query": query, "model": model})
	if err != nil {
		return nil, err
	}

	if cached, ok, err := cache.Get(key); err == nil && ok {
		return append([]string{query}, splitNonEmptyLines(cached)...), nil
	} else if err != nil {
		return nil, err
	}

	variations, err := provider.ExpandQuery(ctx, query, model, count)
	if err != nil {
		// A transient provider failure degrades to the unexpanded query
		// rather than failing the whole search (spec.md §7, TransientLLMError).
		return []string{query}, nil
	}

	// provider.ExpandQuery already prepends query (internal/llm.OllamaProvider);
	// re-derive just the variations for parsing/caching consistency.
	raw := variations
	if len(raw) > 0 && raw[0] == query {
		raw = raw[1:]
	}
	cleaned := parseExpansionText(strings.Join(raw, "\n"), count)

	if err := cache.SetWithAutoCleanup(key, strings.Join(cleaned, "\n"), store.DefaultMaxCacheEntries); err != nil {
		return nil, err
	}

	return append([]string{query}, cleaned...), nil
}

// parseExpansionText strips <think> blocks and keeps trimmed lines of
// length 3-99 (spec.md §4.6.3).
func parseExpansionText(text string, count int) []string {
	text = thinkBlockPattern.ReplaceAllString(text, "")
	lines := splitNonEmptyLines(text)

	out := make([]string, 0, count)
	for _, l := range lines {
		if len(l) < 3 || len(l) > 99 {
			continue
		}
		out = append(out, l)
		if len(out) >= count {
			break
		}
	}
	return out
}

func splitNonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
