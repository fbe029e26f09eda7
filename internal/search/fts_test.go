package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/store"
)

func TestSearchFTS_MatchesPrefixToken(t *testing.T) {
	s := newSearchTestStore(t)
	collections := store.NewCollections(s)
	content := store.NewContent(s)
	documents := store.NewDocuments(s)
	fts := store.NewFTS(s)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, content.Insert("h1", "authentication guide for the api"))
	_, err = documents.Create(coll.ID, "auth.md", "Auth Guide", "h1", time.Now())
	require.NoError(t, err)

	hits, err := SearchFTS(fts, "authen", Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "auth.md", hits[0].Path)
	assert.Equal(t, "fts", hits[0].Source)
}

func TestSearchFTS_EmptyQueryReturnsNil(t *testing.T) {
	s := newSearchTestStore(t)
	fts := store.NewFTS(s)
	hits, err := SearchFTS(fts, "   ", Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBuildFTSQuery_SanitizesAndJoinsWithAnd(t *testing.T) {
	q := buildFTSQuery("Auth!! Setup--2024")
	assert.Equal(t, `"auth"* AND "setup2024"*`, q)
}
