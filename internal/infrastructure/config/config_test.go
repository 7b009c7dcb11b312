package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "9700", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Blocklist.RefreshInterval)
	assert.True(t, cfg.Blocklist.RemoteRefresh)
	assert.NotEmpty(t, cfg.Blocklist.CachePath)
	assert.False(t, cfg.Engine.Headless)
	assert.Equal(t, 1440, cfg.Window.Width)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9800")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BLOCKLIST_REFRESH_INTERVAL", "1h")
	t.Setenv("ENGINE_HEADLESS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9800", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Blocklist.RefreshInterval)
	assert.True(t, cfg.Engine.Headless)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	p, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, p.AuthDomains)
	assert.Empty(t, p.OAuthPopupDomains)
}

func TestLoadPolicyEmptyPath(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Empty(t, p.BlocklistSources)
}

func TestLoadPolicyParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
auth_domains:
  - accounts.google.com
  - login.example.com
oauth_popup_domains:
  - okta.com
blocklist_sources:
  - https://lists.example.com/hosts.txt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts.google.com", "login.example.com"}, p.AuthDomains)
	assert.Equal(t, []string{"okta.com"}, p.OAuthPopupDomains)
	assert.Equal(t, []string{"https://lists.example.com/hosts.txt"}, p.BlocklistSources)
}

func TestLoadPolicyMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth_domains: {not: [valid"), 0o644))

	_, err := LoadPolicy(path)
	assert.Error(t, err)
}
