package vpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmd-dev/qmd/internal/errors"
)

func TestParse_SplitsCollectionAndPath(t *testing.T) {
	p, err := Parse("qmd://repo/docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, "repo", p.Collection)
	assert.Equal(t, "docs/guide.md", p.RelPath)
}

func TestParse_CollectionOnlyHasEmptyRelPath(t *testing.T) {
	p, err := Parse("qmd://repo")
	require.NoError(t, err)
	assert.Equal(t, "repo", p.Collection)
	assert.Equal(t, "", p.RelPath)
}

func TestParse_RequiresExactScheme(t *testing.T) {
	_, err := Parse("repo/docs/guide.md")
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
}

func TestParse_RejectsEmptyCollection(t *testing.T) {
	_, err := Parse("qmd:///docs/guide.md")
	require.Error(t, err)
}

func TestString_RoundTrips(t *testing.T) {
	p := Path{Collection: "repo", RelPath: "docs/guide.md"}
	assert.Equal(t, "qmd://repo/docs/guide.md", p.String())
}

func TestEncodeDecode_PreservesSlashesEscapesSegments(t *testing.T) {
	encoded := Encode("docs/my notes.md")
	assert.Equal(t, "docs/my%20notes.md", encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "docs/my notes.md", decoded)
}
