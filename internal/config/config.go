package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration with sensible defaults for local dev.
type Config struct {
	Port            int           // HTTP port (default 8080)
	BaseURL         string        // e.g., http://localhost:8080 (no trailing slash)
	ShortPrefix     string        // shell redemption prefix, e.g. localhost:8080/
	CodeLength      int           // generated code length (default 8)
	Store           string        // memory | sqlite (default memory)
	DBPath          string        // sqlite DSN (default :memory:)
	CleanupInterval time.Duration // background sweep period; 0 disables (default 1m)
	LogLevel        string        // debug | info | warn | error
	LogFormat       string        // text | json
}

// FromEnv loads configuration from environment variables, falling back to defaults.
// Recognized: PORT, BASE_URL, SHORT_PREFIX, CODE_LENGTH, STORE, DB_PATH,
// CLEANUP_INTERVAL, LOG_LEVEL, LOG_FORMAT.
// A local ".env" file is loaded first if present; it never overrides the real environment.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnvInt("PORT", 8080),
		BaseURL:         sanitizeBaseURL(getEnv("BASE_URL", "http://localhost:8080")),
		CodeLength:      getEnvInt("CODE_LENGTH", 8),
		Store:           strings.ToLower(getEnv("STORE", "memory")),
		DBPath:          getEnv("DB_PATH", ":memory:"),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", time.Minute),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
	cfg.ShortPrefix = getEnv("SHORT_PREFIX", DefaultPrefix(cfg.BaseURL))

	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 8
	}
	if cfg.CleanupInterval < 0 {
		cfg.CleanupInterval = 0
	}
	return cfg
}

// DefaultPrefix strips the scheme from baseURL and appends a slash.
func DefaultPrefix(baseURL string) string {
	if i := strings.Index(baseURL, "://"); i >= 0 {
		baseURL = baseURL[i+3:]
	}
	return strings.TrimRight(baseURL, "/") + "/"
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("90s", "5m") or bare seconds ("30").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func sanitizeBaseURL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/")
	if s == "" {
		return "http://localhost:8080"
	}
	return s
}
