package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestVectors_EnsureVecTable_FixesDimension(t *testing.T) {
	s := newTestStore(t)
	v := NewVectors(s)

	require.NoError(t, v.EnsureVecTable(4))
	assert.Equal(t, 4, v.Dimension())

	cv := ContentVector{Hash: "h1", Seq: 0, Pos: 0, Model: "m", EmbeddedAt: time.Now()}
	err := v.Insert(cv, []float32{1, 2, 3})
	require.Error(t, err, "wrong dimension should be rejected")
}

func TestVectors_InsertAndSearch(t *testing.T) {
	s := newTestStore(t)
	v := NewVectors(s)

	require.NoError(t, v.EnsureVecTable(4))

	collections := NewCollections(s)
	content := NewContent(s)
	documents := NewDocuments(s)
	coll, _, err := collections.GetOrCreate("/repo", "**/*.md", "repo")
	require.NoError(t, err)
	require.NoError(t, content.Insert("h1", "body"))
	_, err = documents.Create(coll.ID, "a.md", "A", "h1", time.Now())
	require.NoError(t, err)

	cv := ContentVector{Hash: "h1", Seq: 0, Pos: 0, Model: "m", EmbeddedAt: time.Now()}
	require.NoError(t, v.Insert(cv, unitVector(4, 0)))

	results, err := v.SearchVectors(unitVector(4, 0), 5, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "h1", results[0].Hash)
	assert.InDelta(t, 0, results[0].Distance, 1e-4)
}

func TestVectors_SearchVectors_EmptyIndexReturnsNil(t *testing.T) {
	s := newTestStore(t)
	v := NewVectors(s)

	results, err := v.SearchVectors(unitVector(4, 0), 5, "")
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestVectors_DeleteForHash(t *testing.T) {
	s := newTestStore(t)
	v := NewVectors(s)
	require.NoError(t, v.EnsureVecTable(4))

	cv := ContentVector{Hash: "h1", Seq: 0, Pos: 0, Model: "m", EmbeddedAt: time.Now()}
	require.NoError(t, v.Insert(cv, unitVector(4, 0)))

	require.NoError(t, v.DeleteForHash("h1"))

	has, err := v.HasEmbedding("h1", "m")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestVectors_Reset(t *testing.T) {
	s := newTestStore(t)
	v := NewVectors(s)
	require.NoError(t, v.EnsureVecTable(4))

	cv := ContentVector{Hash: "h1", Seq: 0, Pos: 0, Model: "m", EmbeddedAt: time.Now()}
	require.NoError(t, v.Insert(cv, unitVector(4, 0)))

	require.NoError(t, v.Reset())
	assert.Equal(t, 0, v.Dimension())

	has, err := v.HasEmbedding("h1", "m")
	require.NoError(t, err)
	assert.False(t, has)
}
