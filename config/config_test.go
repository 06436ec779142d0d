package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log_level = "DEBUG"

[server]
addr = "localhost:9000"
frontend_origin = "https://portal.example.com"

[auth]
jwt_secret = "test-secret"
session_ttl = 3600

[persistence]
type = "buntdb"
dsn = ":memory:"

[presence]
typing_ttl = 5

[[oidc]]
name = "google"
provider_url = "https://accounts.google.com"
`

func TestReadConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	cfg, err := ReadConfiguration(path, GetFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "localhost:9000", cfg.ServerConfig.Addr)
	assert.Equal(t, "https://portal.example.com", cfg.ServerConfig.FrontendOrigin)
	assert.Equal(t, "test-secret", cfg.AuthConfig.JWTSecret)
	assert.Equal(t, time.Hour, cfg.AuthConfig.SessionTTL())
	assert.Equal(t, "buntdb", cfg.PersistenceConfig.Type)
	assert.Equal(t, 5*time.Second, cfg.PresenceConfig.TypingTTL())
	require.Len(t, cfg.OIDCConfigs, 1)
	assert.Equal(t, "google", cfg.OIDCConfigs[0].Name)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, 30*time.Second, cfg.PresenceConfig.TypingTTL())
	assert.Equal(t, 24*time.Hour, cfg.AuthConfig.SessionTTL())
	assert.Equal(t, int64(50<<20), cfg.ServerConfig.UploadLimit())
}
