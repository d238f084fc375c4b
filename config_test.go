package omnifs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omnifs.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchemeConfig(t *testing.T) {
	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		cfg, err := LoadSchemeConfig(filepath.Join(t.TempDir(), "nope.ini"))
		require.NoError(t, err)

		_, _, ok := cfg.Lookup("anything")
		assert.False(t, ok)
	})

	t.Run("SectionsBecomeSchemes", func(t *testing.T) {
		path := writeConfig(t, `
[traindata]
scheme = s3
bucket = ml-datasets
endpoint = https://minio.internal:9000

[scratch]
scheme = file
`)
		cfg, err := LoadSchemeConfig(path)
		require.NoError(t, err)

		real, defaults, ok := cfg.Lookup("traindata")
		require.True(t, ok)
		assert.Equal(t, "s3", real)
		assert.Equal(t, map[string]string{
			"bucket":   "ml-datasets",
			"endpoint": "https://minio.internal:9000",
		}, defaults)

		real, defaults, ok = cfg.Lookup("scratch")
		require.True(t, ok)
		assert.Equal(t, "file", real)
		assert.Empty(t, defaults)
	})

	t.Run("UndeclaredScheme", func(t *testing.T) {
		path := writeConfig(t, "[traindata]\nscheme = s3\n")
		cfg, err := LoadSchemeConfig(path)
		require.NoError(t, err)

		_, _, ok := cfg.Lookup("other")
		assert.False(t, ok)
	})

	t.Run("MalformedFile", func(t *testing.T) {
		path := writeConfig(t, "[unclosed\nnot ini at all")
		_, err := LoadSchemeConfig(path)
		assert.Error(t, err)
	})
}

func TestDefaultConfigPath(t *testing.T) {
	t.Run("ExplicitPathWins", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/etc/omnifs/custom.ini")
		t.Setenv(EnvConfigHome, "/xdg")
		assert.Equal(t, "/etc/omnifs/custom.ini", DefaultConfigPath())
	})

	t.Run("ConfigHome", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv(EnvConfigHome, "/xdg")
		assert.Equal(t, filepath.Join("/xdg", "omnifs.ini"), DefaultConfigPath())
	})

	t.Run("HomeFallback", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv(EnvConfigHome, "")
		t.Setenv("HOME", "/home/u")
		assert.Equal(t, filepath.Join("/home/u", ".config", "omnifs.ini"), DefaultConfigPath())
	})
}
