package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_ContainsVersionAndProgramName(t *testing.T) {
	str := String()
	assert.Contains(t, str, Version)
	assert.Contains(t, str, "qmd")
	assert.Contains(t, str, "commit")
}

func TestShort_ReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestGetInfo_MatchesPackageVars(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
}

func TestGetInfo_IsJSONSerializable(t *testing.T) {
	data, err := json.Marshal(GetInfo())
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Contains(t, parsed, "version")
	assert.Contains(t, parsed, "go_version")
}
