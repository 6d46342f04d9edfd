package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "davsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
webdav_url: "http://example.com/webdav"
username: "user"
password: "pass"
folders:
  - "/path/to/folder1"
  - "/path/to/folder2"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/webdav", cfg.WebDAVURL)
	assert.Equal(t, "user", cfg.Username)
	assert.Equal(t, "pass", cfg.Password)
	assert.Equal(t, []string{"/path/to/folder1", "/path/to/folder2"}, cfg.Folders)
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
webdav_url: "http://example.com/webdav"
folders:
  - "/path/to/folder1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSecs, cfg.TimeoutSecs)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.Equal(t, "", cfg.TargetDir)
	assert.False(t, cfg.PseudoHash)
	assert.False(t, cfg.Progress)
	assert.True(t, filepath.IsAbs(cfg.LedgerPath))
	assert.Equal(t, DefaultLedgerPath, filepath.Base(cfg.LedgerPath))
	assert.Equal(t, "hashes.yaml", cfg.RemoteLedgerPath, "remote path defaults to the local base name")
}

func TestLoad_TargetDir(t *testing.T) {
	path := writeConfig(t, `
webdav_url: "http://example.com/webdav"
folders:
  - "/path/to/folder1"
target_dir: "remote/dir"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "remote/dir", cfg.TargetDir)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing webdav_url", func(t *testing.T) {
		_, err := Load(writeConfig(t, "folders:\n  - /f\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webdav_url")
	})

	t.Run("invalid url scheme", func(t *testing.T) {
		_, err := Load(writeConfig(t, "webdav_url: ftp://x\nfolders:\n  - /f\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webdav_url")
	})

	t.Run("empty folders", func(t *testing.T) {
		_, err := Load(writeConfig(t, "webdav_url: http://x\nfolders: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "folders")
	})

	t.Run("blank folder entry", func(t *testing.T) {
		_, err := Load(writeConfig(t, "webdav_url: http://x\nfolders:\n  - \"\"\n"))
		assert.Error(t, err)
	})

	t.Run("username without password", func(t *testing.T) {
		_, err := Load(writeConfig(t, "webdav_url: http://x\nusername: u\nfolders:\n  - /f\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "username")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "webdav_url: [broken\n"))
		assert.Error(t, err)
	})
}
