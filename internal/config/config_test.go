package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{Port: "8080"},
		Backend: BackendConfig{
			BaseURL:           "https://backend.example.com",
			MaxAudioURLLength: 8000,
		},
		Archive: ArchiveConfig{CDNBaseURL: "https://cdn.example.com"},
		Cache:   CacheConfig{Path: "/tmp/cache"},
		Playback: PlaybackConfig{
			ResumeThreshold:  10 * time.Second,
			ProgressInterval: 10 * time.Second,
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "qa"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresBackendURL(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.BaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresCDNURL(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.CDNBaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeOutageThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.OutageThreshold = -1
	assert.Error(t, cfg.Validate())
}

func TestIsProduction(t *testing.T) {
	assert.False(t, AppConfig{Environment: "development"}.IsProduction())
	assert.True(t, AppConfig{Environment: "production"}.IsProduction())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nTEST_ENGINE_KEY=hello\nTEST_ENGINE_QUOTED=\"world\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("TEST_ENGINE_KEY", "")
	t.Setenv("TEST_ENGINE_QUOTED", "")
	os.Unsetenv("TEST_ENGINE_KEY")
	os.Unsetenv("TEST_ENGINE_QUOTED")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "hello", os.Getenv("TEST_ENGINE_KEY"))
	assert.Equal(t, "world", os.Getenv("TEST_ENGINE_QUOTED"))
}

func TestGetConfigValuePrecedence(t *testing.T) {
	t.Setenv("TEST_ENGINE_PRECEDENCE", "from-env")
	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TEST_ENGINE_PRECEDENCE", "fallback"))
	assert.Equal(t, "from-env", getConfigValue("", "TEST_ENGINE_PRECEDENCE", "fallback"))
	assert.Equal(t, "fallback", getConfigValue("", "TEST_ENGINE_MISSING", "fallback"))
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := expandPath("~/cache", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), expanded)
}
