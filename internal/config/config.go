// Package config provides engine configuration management with support for
// environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the engine configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Backend  BackendConfig
	Archive  ArchiveConfig
	Cache    CacheConfig
	Playback PlaybackConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsProduction reports whether the engine runs in production mode.
// Outside production, a failed generation degrades to a placeholder
// transcript so the player UI stays exercisable.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 120s, load can long-poll)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// BackendConfig holds managed-backend configuration.
type BackendConfig struct {
	// BaseURL is the root of the backend action API.
	BaseURL string
	// UploadURL is the file-upload collaborator endpoint. Defaults to
	// {BaseURL}/upload when empty.
	UploadURL string
	// Timeout applies per backend request.
	Timeout time.Duration
	// MaxAudioURLLength is the longest URL that may be handed to a
	// transcription job.
	MaxAudioURLLength int
}

// ArchiveConfig holds CDN archive tier configuration.
type ArchiveConfig struct {
	// CDNBaseURL is the root of the content-delivery read path; transcripts
	// live at {CDNBaseURL}/transcripts/{episodeID}.json.
	CDNBaseURL string
	// Timeout applies per archive read.
	Timeout time.Duration
	// OutageThreshold is the number of consecutive network-level read
	// failures after which the archive reports an outage instead of absent.
	// 0 disables escalation and treats outages as absent.
	OutageThreshold int
}

// CacheConfig holds device-local cache configuration.
type CacheConfig struct {
	// Path is the badger database directory.
	Path string
}

// PlaybackConfig holds playback-side tunables.
type PlaybackConfig struct {
	// ResumeThreshold is how close to the end a stored position may be and
	// still trigger resume.
	ResumeThreshold time.Duration
	// ProgressInterval is how often playback progress is persisted.
	ProgressInterval time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 120s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	backendURL := flag.String("backend-url", "", "Backend action API base URL")
	uploadURL := flag.String("upload-url", "", "File upload endpoint (default: {backend}/upload)")
	backendTimeout := flag.String("backend-timeout", "", "Backend request timeout (default: 30s)")

	cdnURL := flag.String("cdn-url", "", "CDN base URL for the transcript archive tier")
	archiveTimeout := flag.String("archive-timeout", "", "Archive read timeout (default: 10s)")
	archiveOutage := flag.String("archive-outage-threshold", "", "Consecutive archive network failures before escalation (default: 0, disabled)")

	cachePath := flag.String("cache-path", "", "Directory for the device-local transcript cache")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Backend: BackendConfig{
			BaseURL:           getConfigValue(*backendURL, "BACKEND_URL", ""),
			UploadURL:         getConfigValue(*uploadURL, "UPLOAD_URL", ""),
			MaxAudioURLLength: getIntConfigValue("", "MAX_AUDIO_URL_LENGTH", 8000),
		},
		Archive: ArchiveConfig{
			CDNBaseURL:      getConfigValue(*cdnURL, "CDN_URL", ""),
			OutageThreshold: getIntConfigValue(*archiveOutage, "ARCHIVE_OUTAGE_THRESHOLD", 0),
		},
		Cache: CacheConfig{
			Path: getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Playback: PlaybackConfig{
			ResumeThreshold:  10 * time.Second,
			ProgressInterval: 10 * time.Second,
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "120s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Backend.Timeout, err = parseDurationValue(*backendTimeout, "BACKEND_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Archive.Timeout, err = parseDurationValue(*archiveTimeout, "ARCHIVE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if cfg.Backend.UploadURL == "" && cfg.Backend.BaseURL != "" {
		cfg.Backend.UploadURL = strings.TrimSuffix(cfg.Backend.BaseURL, "/") + "/upload"
	}

	if err := cfg.expandCachePath(); err != nil {
		return nil, fmt.Errorf("invalid cache path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.Archive.CDNBaseURL == "" {
		return errors.New("CDN_URL is required")
	}
	if c.Backend.MaxAudioURLLength <= 0 {
		return errors.New("MAX_AUDIO_URL_LENGTH must be positive")
	}
	if c.Archive.OutageThreshold < 0 {
		return errors.New("ARCHIVE_OUTAGE_THRESHOLD must not be negative")
	}
	if c.Cache.Path == "" {
		return errors.New("cache path cannot be empty after expansion")
	}

	return nil
}

// expandCachePath expands ~ and makes the path absolute.
// Defaults to ~/.lingopod/cache if not specified.
func (c *Config) expandCachePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".lingopod", "cache")

	expanded, err := expandPath(c.Cache.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Cache.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// parseDurationValue resolves a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
