// Package config resolves runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob.
type Config struct {
	// Backend selects the catalog store, "sqlite" or "postgres".
	Backend     string
	SQLitePath  string
	PostgresDSN string

	// ResultsDir is where engine batch files are picked up.
	ResultsDir string

	MetricsPort int

	MaxKeywords  int
	SplitPhrases bool

	RequestTimeout    time.Duration
	RequestsPerSecond float64
	RequestJitter     float64
	FetchProfile      string
	ProxyURL          string
	RespectRobots     bool
	RobotsUserAgent   string
}

// Defaults mirrors what a fresh deployment runs with.
func Defaults() Config {
	return Config{
		Backend:           "sqlite",
		SQLitePath:        "magpie.db",
		ResultsDir:        "results",
		MetricsPort:       9090,
		MaxKeywords:       10,
		SplitPhrases:      true,
		RequestTimeout:    15 * time.Second,
		RequestsPerSecond: 2,
		RequestJitter:     0.3,
		FetchProfile:      "chrome",
		RespectRobots:     true,
		RobotsUserAgent:   "magpie",
	}
}

// Load reads MAGPIE_* variables on top of the defaults. A .env file in the
// working directory is applied first when present. Malformed values are
// logged and fall back to the default rather than failing startup.
func Load(logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env file", "error", err)
	}

	cfg := Defaults()

	cfg.Backend = envString("MAGPIE_BACKEND", cfg.Backend)
	cfg.SQLitePath = envString("MAGPIE_SQLITE_PATH", cfg.SQLitePath)
	cfg.PostgresDSN = envString("MAGPIE_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.ResultsDir = envString("MAGPIE_RESULTS_DIR", cfg.ResultsDir)
	cfg.MetricsPort = envInt(logger, "MAGPIE_METRICS_PORT", cfg.MetricsPort)
	cfg.MaxKeywords = envInt(logger, "MAGPIE_MAX_KEYWORDS", cfg.MaxKeywords)
	cfg.SplitPhrases = envBool(logger, "MAGPIE_SPLIT_PHRASES", cfg.SplitPhrases)
	cfg.RequestTimeout = envDuration(logger, "MAGPIE_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RequestsPerSecond = envFloat(logger, "MAGPIE_REQUESTS_PER_SECOND", cfg.RequestsPerSecond)
	cfg.RequestJitter = envFloat(logger, "MAGPIE_REQUEST_JITTER", cfg.RequestJitter)
	cfg.FetchProfile = envString("MAGPIE_FETCH_PROFILE", cfg.FetchProfile)
	cfg.ProxyURL = envString("MAGPIE_PROXY_URL", cfg.ProxyURL)
	cfg.RespectRobots = envBool(logger, "MAGPIE_RESPECT_ROBOTS", cfg.RespectRobots)
	cfg.RobotsUserAgent = envString("MAGPIE_ROBOTS_USER_AGENT", cfg.RobotsUserAgent)

	if cfg.Backend != "sqlite" && cfg.Backend != "postgres" {
		logger.Warn("unknown backend, falling back to sqlite", "backend", cfg.Backend)
		cfg.Backend = "sqlite"
	}

	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid integer value", "key", key, "value", v)
		return fallback
	}
	return n
}

func envFloat(logger *slog.Logger, key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid float value", "key", key, "value", v)
		return fallback
	}
	return f
}

func envBool(logger *slog.Logger, key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid boolean value", "key", key, "value", v)
		return fallback
	}
	return b
}

func envDuration(logger *slog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration value", "key", key, "value", v)
		return fallback
	}
	return d
}
