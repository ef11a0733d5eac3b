package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment    string
	HTTPPort       string
	BackendURL     string
	DatabasePath   string
	GeoIPDatabase  string
	WorldGeoJSON   string
	LogDir         string
	Debug          bool
	RequestTimeout time.Duration
	SweepSchedule  string
}

// Load reads env vars and falls back to defaults so the console can boot with zero configuration.
// A .env file in the working directory is honoured but never overrides the real environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("INTELINK_REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse INTELINK_REQUEST_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("INTELINK_REQUEST_TIMEOUT must be positive, got %s", timeout)
	}

	cfg := Config{
		Environment:    getEnv("INTELINK_ENV", "development"),
		HTTPPort:       getEnv("INTELINK_HTTP_PORT", "8080"),
		BackendURL:     strings.TrimRight(getEnv("INTELINK_BACKEND_URL", getEnv("EXPO_PUBLIC_BACKEND_URL", "http://localhost:8000")), "/"),
		DatabasePath:   getEnv("INTELINK_DB_PATH", filepath.Join("data", "intelink.db")),
		GeoIPDatabase:  getEnv("INTELINK_GEOIP_DB", ""),
		WorldGeoJSON:   getEnv("INTELINK_WORLD_GEOJSON", ""),
		LogDir:         getEnv("INTELINK_LOG_DIR", filepath.Join("data", "logs")),
		Debug:          getBool("INTELINK_DEBUG", false),
		RequestTimeout: timeout,
		SweepSchedule:  getEnv("INTELINK_SWEEP_SCHEDULE", "@every 1h"),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the console runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
