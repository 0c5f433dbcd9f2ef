package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "./watchlist.json", cfg.Watchlist)
	assert.Equal(t, 30*time.Minute, cfg.Poll.Interval)
	assert.Equal(t, 45*time.Second, cfg.Poll.Jitter)
	assert.Equal(t, 20*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, "/p/", cfg.Browser.CanonicalPath)
	assert.Equal(t, 2, cfg.Browser.NavRetries)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "./state.json", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Contains(t, cfg.Browser.UserAgent, "Mozilla/5.0")
	assert.False(t, cfg.Browser.DisableHeadless, "browser must be headless unless opted out")
}

func TestLoad_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
poll:
  interval: 10m
  jitter: 20s
browser:
  timeout: 30s
  disable_headless: true
store:
  backend: file
  path: /var/lib/shelfwatch/state.json
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Poll.Interval)
	assert.Equal(t, 20*time.Second, cfg.Poll.Jitter)
	assert.Equal(t, 30*time.Second, cfg.Browser.Timeout)
	assert.True(t, cfg.Browser.DisableHeadless)
	assert.Equal(t, "/var/lib/shelfwatch/state.json", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SHELFWATCH_TEST_WEBHOOK", "https://discord.com/api/webhooks/x/y")

	cfg, err := Load(writeConfig(t, `
notifications:
  discord:
    enabled: true
    webhook_url: ${SHELFWATCH_TEST_WEBHOOK}
`))
	require.NoError(t, err)

	assert.Equal(t, "https://discord.com/api/webhooks/x/y", cfg.Notifications.Discord.WebhookURL)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown store backend",
			yaml:    "store:\n  backend: redis\n",
			wantErr: "store.backend must be one of",
		},
		{
			name:    "postgres backend without host",
			yaml:    "store:\n  backend: postgres\n",
			wantErr: "store.postgres.host is required",
		},
		{
			name:    "discord enabled without webhook",
			yaml:    "notifications:\n  discord:\n    enabled: true\n",
			wantErr: "webhook_url is required",
		},
		{
			name:    "webhook enabled without url",
			yaml:    "notifications:\n  webhook:\n    enabled: true\n",
			wantErr: "webhook.url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 30*time.Minute, cfg.Poll.Interval)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.False(t, cfg.Browser.DisableHeadless, "browser must be headless unless opted out")
}
