package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the spacetraveling server.
type Config struct {
	PrismicEndpoint    string
	PrismicAccessToken string
	PreviewSecret      string
	DBPath             string
	ServerPort         int
	LogLevel           string
	SentryDSN          string
	Environment        string
	ShutdownGrace      time.Duration
	RevalidateAfter    time.Duration
	HomePageSize       int
	PathsPageSize      int
	PrerenderOnStart   bool
	RateLimit          RateLimitConfig
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	defaultDBPath          = "./data/spacetraveling.db"
	defaultServerPort      = 8080
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultShutdownGrace   = 10 * time.Second
	defaultRevalidateAfter = 24 * time.Hour
	defaultHomePageSize    = 2
	defaultPathsPageSize   = 20
	defaultRateLimitBurst  = 20
	defaultRateLimitRPS    = 10.0
	defaultRateLimitTTL    = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		PrismicEndpoint:    strings.TrimSpace(os.Getenv("PRISMIC_API_ENDPOINT")),
		PrismicAccessToken: strings.TrimSpace(os.Getenv("PRISMIC_ACCESS_TOKEN")),
		PreviewSecret:      os.Getenv("PREVIEW_SECRET"),
		DBPath:             getEnv("DB_PATH", defaultDBPath),
		LogLevel:           getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		Environment:        getEnv("ENV", defaultEnvironment),
		ShutdownGrace:      defaultShutdownGrace,
	}

	if cfg.PrismicEndpoint == "" {
		return nil, eris.New("PRISMIC_API_ENDPOINT is required")
	}

	var err error
	if cfg.ServerPort, err = intEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.HomePageSize, err = intEnv("HOME_PAGE_SIZE", defaultHomePageSize); err != nil {
		return nil, err
	}
	if cfg.PathsPageSize, err = intEnv("PATHS_PAGE_SIZE", defaultPathsPageSize); err != nil {
		return nil, err
	}
	if cfg.RevalidateAfter, err = durationEnv("REVALIDATE_AFTER", defaultRevalidateAfter); err != nil {
		return nil, err
	}
	if cfg.PrerenderOnStart, err = boolEnv("PRERENDER_ON_START", false); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Burst, err = intEnv("RATE_LIMIT_BURST", defaultRateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RequestsPerSecond, err = floatEnv("RATE_LIMIT_RPS", defaultRateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimit.ClientTTL, err = durationEnv("RATE_LIMIT_CLIENT_TTL", defaultRateLimitTTL); err != nil {
		return nil, err
	}

	if cfg.HomePageSize <= 0 || cfg.PathsPageSize <= 0 {
		return nil, eris.New("HOME_PAGE_SIZE and PATHS_PAGE_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
