package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCmd_ReturnsContentByVirtualPath(t *testing.T) {
	e := withTestEngine(t)
	collection, relPath := seedTestDocument(t, e)

	cmd := newGetCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"qmd://" + collection + "/" + relPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "the quick brown fox jumps over the lazy dog")
}

func TestGetCmd_UnknownPathReturnsError(t *testing.T) {
	e := withTestEngine(t)
	seedTestDocument(t, e)

	cmd := newGetCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"qmd://repo/missing.md"})

	require.Error(t, cmd.Execute())
}

func TestGetCmd_UnknownPathSuggestsSimilarActiveDocument(t *testing.T) {
	e := withTestEngine(t)
	collection, relPath := seedTestDocument(t, e)

	errBuf := &bytes.Buffer{}
	cmd := newGetCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"qmd://" + collection + "/notes"})

	require.Error(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), relPath)
}
