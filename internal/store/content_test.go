package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_InsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	c := NewContent(s)

	require.NoError(t, c.Insert("hash1", "the quick brown fox"))
	require.NoError(t, c.Insert("hash1", "the quick brown fox"))

	body, ok, err := c.Get("hash1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "the quick brown fox", body)
}

func TestContent_GetMissing(t *testing.T) {
	s := newTestStore(t)
	c := NewContent(s)

	_, ok, err := c.Get("does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}
