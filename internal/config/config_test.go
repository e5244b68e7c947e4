package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
docstore:
  base_url: https://docstore.example
  token: tok
identity:
  base_url: https://identity.example
  api_key: key
security:
  session_secret: `+testSecret+`
  session_ttl_hours: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "https://docstore.example", cfg.Docstore.BaseURL)
	require.Equal(t, 4, cfg.Security.SessionTTLHours)
	// Defaults survive a partial file.
	require.Equal(t, "memory", cfg.Security.LimiterBackend)
	require.Equal(t, 50, cfg.Blob.MaxFileMB)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
docstore:
  base_url: https://docstore.example
identity:
  base_url: https://identity.example
security:
  session_secret: `+testSecret+`
`)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("TELEGRAM_ADMIN_CHAT_IDS", "100, 200")
	t.Setenv("MAX_FILE_MB", "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, []int64{100, 200}, cfg.Telegram.AdminChatIDs)
	require.Equal(t, 10, cfg.Blob.MaxFileMB)
}

func TestValidateRejectsShortSecret(t *testing.T) {
	path := writeConfig(t, `
docstore:
  base_url: https://docstore.example
identity:
  base_url: https://identity.example
security:
  session_secret: short
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "session secret")
}

func TestValidateRedisBackendNeedsAddr(t *testing.T) {
	path := writeConfig(t, `
docstore:
  base_url: https://docstore.example
identity:
  base_url: https://identity.example
security:
  session_secret: `+testSecret+`
  limiter_backend: redis
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "redis addr")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.Security.LimiterBackend)
}

func TestNotifyEnabled(t *testing.T) {
	cfg := defaultConfig()
	require.False(t, cfg.NotifyEnabled())
	cfg.Telegram.Token = "tok"
	cfg.Telegram.AdminChatIDs = []int64{1}
	require.True(t, cfg.NotifyEnabled())
}
