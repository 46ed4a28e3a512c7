package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
verify_checksum = false
jobs = 3
log_level = "debug"
json = true
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		VerifyChecksum: false,
		Jobs:           3,
		LogLevel:       "debug",
		JSON:           true,
		Path:           path,
	}, c)
	assert.Equal(t, 3, c.Workers())
}

func TestLoadKeepsDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, t.TempDir(), "jobs = 2\n"))
	require.NoError(t, err)
	assert.True(t, c.VerifyChecksum)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "jobs = ", "parse error"},
		{"unknown key", "verify-checksum = true\n", "unknown keys"},
		{"negative jobs", "jobs = -1\n", "jobs must not be negative"},
		{"bad level", "log_level = \"loud\"\n", "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path := writeConfig(t, root, "jobs = 5\n")
	c, err := FindAndLoad(nested)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Jobs)
	assert.Equal(t, path, c.Path)
}

func TestFindAndLoadDefault(t *testing.T) {
	// Assumes no .dexverify.toml above the temp directory.
	c, err := FindAndLoad(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, runtime.NumCPU(), c.Workers())
}
