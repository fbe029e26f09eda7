package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTS_SearchFTS_MatchesAndScores(t *testing.T) {
	s := newTestStore(t)
	collections := NewCollections(s)
	content := NewContent(s)
	documents := NewDocuments(s)
	fts := NewFTS(s)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)

	require.NoError(t, content.Insert("hash1", "# Title\nthe quick brown fox"))
	_, err = documents.Create(coll.ID, "notes.md", "Title", "hash1", time.Now())
	require.NoError(t, err)

	hits, err := fts.SearchFTS(`"quick"*`, 10, "", 10.0, 1.0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.md", hits[0].Path)
	assert.Equal(t, "Title", hits[0].Title)
}

func TestFTS_SearchFTS_FiltersInactive(t *testing.T) {
	s := newTestStore(t)
	collections := NewCollections(s)
	content := NewContent(s)
	documents := NewDocuments(s)
	fts := NewFTS(s)

	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)

	require.NoError(t, content.Insert("hash1", "the quick brown fox"))
	doc, err := documents.Create(coll.ID, "notes.md", "Title", "hash1", time.Now())
	require.NoError(t, err)
	require.NoError(t, documents.Deactivate(doc.ID))

	hits, err := fts.SearchFTS(`"quick"*`, 10, "", 10.0, 1.0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
