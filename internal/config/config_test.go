package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "badger" {
		t.Errorf("cache backend = %s, want badger", cfg.Cache.Backend)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", cfg.Cache.DefaultTTL)
	}
	if cfg.Ingestion.ChunkSize != 5000 {
		t.Errorf("chunk size = %d, want 5000", cfg.Ingestion.ChunkSize)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("INGEST_CHUNK_SIZE", "2000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("port = %s, want 9999", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("backend = %s, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.DefaultTTL != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", cfg.Cache.DefaultTTL)
	}
	if cfg.Ingestion.ChunkSize != 2000 {
		t.Errorf("chunk size = %d, want 2000", cfg.Ingestion.ChunkSize)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("unknown backend must fail validation")
	}
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("postgres backend without DATABASE_URL must fail")
	}
}
