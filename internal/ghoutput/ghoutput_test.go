package ghoutput

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAppendsSortedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("previous=1\n"), 0o600))

	require.NoError(t, Write(path, map[string]string{
		"version":        "v004",
		"published_path": "/shows/a/mdl_chair_v004.ma",
		" ":              "ignored",
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous=1\npublished_path=/shows/a/mdl_chair_v004.ma\nversion=v004\n", string(raw))
}

func TestWriteMultiline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")

	require.NoError(t, Write(path, map[string]string{"report": "line one\nline two"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	re := regexp.MustCompile(`^report<<(ghadelimiter_[0-9a-f-]+)\nline one\nline two\n(ghadelimiter_[0-9a-f-]+)\n$`)
	m := re.FindStringSubmatch(string(raw))
	require.Len(t, m, 3)
	assert.Equal(t, m[1], m[2])
}

func TestWriteNoop(t *testing.T) {
	assert.NoError(t, Write("", map[string]string{"version": "v001"}))

	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, Write(path, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPathFromEnvironment(t *testing.T) {
	t.Setenv(EnvVar, " /tmp/gh-output ")
	assert.Equal(t, "/tmp/gh-output", Path())
}
