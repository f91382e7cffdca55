package config

import (
	"os"
	"strconv"
	"time"

	"datalens/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Ingestion IngestionConfig
	Database  DatabaseConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	OpsPort string
	GinMode string
}

// CacheConfig holds cache layer settings
type CacheConfig struct {
	// Backend selects the persistent tier: "badger", "postgres" or
	// "memory" (no persistent tier).
	Backend    string
	Dir        string
	DefaultTTL time.Duration
}

// IngestionConfig holds ingestion pipeline defaults
type IngestionConfig struct {
	ChunkSize   int
	MaxRows     int
	SampleCap   int
	MaxFileSize int64
}

// DatabaseConfig holds the optional Postgres cache backend settings
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from the environment, consulting a .env file
// when present, and validates it.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be fully populated.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			OpsPort: getEnvOrDefault("OPS_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Cache: CacheConfig{
			Backend:    getEnvOrDefault("CACHE_BACKEND", "badger"),
			Dir:        getEnvOrDefault("CACHE_DIR", "data/cache"),
			DefaultTTL: getEnvDurationOrDefault("CACHE_TTL", 5*time.Minute),
		},
		Ingestion: IngestionConfig{
			ChunkSize:   getEnvIntOrDefault("INGEST_CHUNK_SIZE", 5000),
			MaxRows:     getEnvIntOrDefault("INGEST_MAX_ROWS", 1_000_000),
			SampleCap:   getEnvIntOrDefault("INGEST_SAMPLE_CAP", 100_000),
			MaxFileSize: int64(getEnvIntOrDefault("INGEST_MAX_FILE_MB", 50)) * 1024 * 1024,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Cache.Backend {
	case "badger", "postgres", "memory":
	default:
		return errors.ConfigInvalid("CACHE_BACKEND must be badger, postgres or memory")
	}
	if cfg.Cache.Backend == "postgres" && cfg.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required for the postgres cache backend")
	}
	if cfg.Ingestion.ChunkSize < 1 {
		return errors.ConfigInvalid("INGEST_CHUNK_SIZE must be positive")
	}
	if cfg.Cache.DefaultTTL <= 0 {
		return errors.ConfigInvalid("CACHE_TTL must be positive")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
