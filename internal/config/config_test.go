package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache-dir: "/var/lib/googledocs/creds"
debug: true
logging-to-file: true
proxy-url: "socks5://127.0.0.1:1080"
api-key: "configured-key"
client-secret-file: "/etc/googledocs/secret.json"
document-cache: "/var/lib/googledocs/documents.bolt"
request-log: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/googledocs/creds", cfg.CacheDir)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.LoggingToFile)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.ProxyURL)
	assert.Equal(t, "configured-key", cfg.APIKey)
	assert.Equal(t, "/etc/googledocs/secret.json", cfg.ClientSecretFile)
	assert.Equal(t, "/var/lib/googledocs/documents.bolt", cfg.DocumentCache)
	assert.True(t, cfg.RequestLog)
}

func TestLoadConfig_AbsentKeysKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	home, errHome := os.UserHomeDir()
	require.NoError(t, errHome)
	assert.Equal(t, filepath.Join(home, ".config", "googledocs", "credentials"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(home, ".config", "googledocs", "documents.bolt"), cfg.DocumentCache)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.LoggingToFile)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache-dir: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandHome("~/some/dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "some", "dir"), expanded)

	expanded, err = ExpandHome("~")
	require.NoError(t, err)
	assert.Equal(t, home, expanded)

	// Absolute and relative paths pass through untouched.
	expanded, err = ExpandHome("/absolute/path")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path", expanded)

	expanded, err = ExpandHome("relative/path")
	require.NoError(t, err)
	assert.Equal(t, "relative/path", expanded)

	// A "~user" style path is not home-relative for this loader.
	expanded, err = ExpandHome("~other/dir")
	require.NoError(t, err)
	assert.Equal(t, "~other/dir", expanded)
}

func TestExpandPaths_EmptyFieldsStayEmpty(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.ExpandPaths())
	assert.Equal(t, "", cfg.CacheDir)
	assert.Equal(t, "", cfg.ClientSecretFile)
}

func TestDefaultConfigPath(t *testing.T) {
	assert.True(t, strings.HasPrefix(DefaultConfigPath(), "~"))
	assert.True(t, strings.HasSuffix(DefaultConfigPath(), "config.yaml"))
}
