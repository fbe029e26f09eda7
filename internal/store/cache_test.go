package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GenerateKey_IsDeterministic(t *testing.T) {
	k1, err := GenerateKey("http://localhost:11434/api/embed", map[string]any{"model": "m", "input": "x"})
	require.NoError(t, err)
	k2, err := GenerateKey("http://localhost:11434/api/embed", map[string]any{"model": "m", "input": "x"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := GenerateKey("http://localhost:11434/api/embed", map[string]any{"model": "m", "input": "y"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestCache_SetAndGet(t *testing.T) {
	s := newTestStore(t)
	c := NewCache(s)

	require.NoError(t, c.SetWithAutoCleanup("key1", "value1", 100))

	got, ok, err := c.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value1", got)
}

func TestCache_Clear(t *testing.T) {
	s := newTestStore(t)
	c := NewCache(s)

	require.NoError(t, c.SetWithAutoCleanup("key1", "value1", 100))
	require.NoError(t, c.Clear())

	_, ok, err := c.Get("key1")
	require.NoError(t, err)
	assert.False(t, ok)
}
