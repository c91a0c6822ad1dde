package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/japperJ/geo2-ip-webserver/internal/logger"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	JWTSecret    string

	// ContentDir is the root under which per-site content trees live.
	ContentDir string
	// ArtifactDir is where block-page screenshots are stored.
	ArtifactDir string

	// GeoIPDatabasePath points at a MaxMind .mmdb file. Empty disables
	// IP-geo enrichment entirely.
	GeoIPDatabasePath string
	// RedisURL enables the shared IP-geo lookup cache when set.
	RedisURL string

	// ScreenshotEnabled toggles block-page artifact capture.
	ScreenshotEnabled bool
	// ScreenshotTimeout bounds a single capture attempt.
	ScreenshotTimeout time.Duration

	// AuditRetention is how long audit entries are kept before the daily
	// prune job removes them. Zero disables pruning.
	AuditRetention time.Duration

	// AlertURLs are shoutrrr notification URLs for operator alerts.
	AlertURLs []string
}

// Load reads env vars and falls back to defaults so the server can boot with
// zero configuration. A .env file in the working directory is honored when
// present, matching local development setups.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:       getEnv("GG_ENV", "development"),
		HTTPPort:          getEnv("GG_HTTP_PORT", "8080"),
		DatabasePath:      getEnv("GG_DB_PATH", filepath.Join("data", "geogate.db")),
		JWTSecret:         getEnv("GG_JWT_SECRET", ""),
		ContentDir:        getEnv("GG_CONTENT_DIR", filepath.Join("data", "content")),
		ArtifactDir:       getEnv("GG_ARTIFACT_DIR", filepath.Join("data", "artifacts")),
		GeoIPDatabasePath: getEnv("GG_GEOIP_DB", ""),
		RedisURL:          getEnv("GG_REDIS_URL", ""),
		ScreenshotEnabled: getEnvBool("GG_SCREENSHOT_ENABLED", false),
		ScreenshotTimeout: getEnvDuration("GG_SCREENSHOT_TIMEOUT", 15*time.Second),
		AuditRetention:    getEnvDuration("GG_AUDIT_RETENTION", 90*24*time.Hour),
	}

	if urls := os.Getenv("GG_ALERT_URLS"); urls != "" {
		cfg.AlertURLs = splitAndTrim(urls)
	}

	// An empty signing secret would let anyone mint valid tokens. Rather
	// than boot in that state, generate a random secret for this process;
	// existing sessions will not survive a restart until one is configured.
	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		logger.Log().Warn("GG_JWT_SECRET is not set; using a random per-boot secret, sessions will not survive restarts")
	}

	for _, dir := range []string{filepath.Dir(cfg.DatabasePath), cfg.ContentDir, cfg.ArtifactDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure data directory: %w", err)
		}
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
