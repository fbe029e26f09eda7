package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qmd-dev/qmd/internal/search"
)

func TestWriteHits_EmptyListPrintsNoResults(t *testing.T) {
	var buf bytes.Buffer
	WriteHits(&buf, nil, func(h search.Hit) string { return h.Path })
	assert.Contains(t, buf.String(), "no results")
}

func TestWriteHits_RendersTitlePathScoreSnippet(t *testing.T) {
	var buf bytes.Buffer
	hits := []search.Hit{
		{Title: "Auth Guide", Path: "auth.md", Score: 0.87, Snippet: "the quick brown fox"},
	}
	WriteHits(&buf, hits, func(h search.Hit) string { return "qmd://repo/" + h.Path })

	out := buf.String()
	assert.Contains(t, out, "Auth Guide")
	assert.Contains(t, out, "qmd://repo/auth.md")
	assert.Contains(t, out, "0.870")
	assert.Contains(t, out, "the quick brown fox")
}

func TestWriteHits_FallsBackToPathWhenTitleEmpty(t *testing.T) {
	var buf bytes.Buffer
	hits := []search.Hit{{Path: "notes.md"}}
	WriteHits(&buf, hits, func(h search.Hit) string { return h.Path })
	assert.Contains(t, buf.String(), "notes.md")
}

func TestWriteError_RendersMessage(t *testing.T) {
	var buf bytes.Buffer
	WriteError(&buf, errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}

func TestIsTTY_NonFileWriterIsFalse(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
}
