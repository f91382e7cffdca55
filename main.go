package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"datalens/adapters/badger"
	"datalens/adapters/ingest"
	"datalens/adapters/postgres"
	"datalens/app"
	"datalens/internal"
	"datalens/internal/api"
	"datalens/internal/cache"
	"datalens/internal/config"
	"datalens/internal/executor"
	"datalens/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := internal.NewDefaultLogger()

	persistent := openBackend(cfg, logger)
	store := cache.NewTieredStore(persistent, cfg.Cache.DefaultTTL, logger)

	worker := executor.NewWorker(logger)
	exec := executor.New(store, worker, logger)

	pipeline := ingest.NewPipeline(logger)
	defaults := ingest.Options{
		ChunkSize: cfg.Ingestion.ChunkSize,
		MaxRows:   cfg.Ingestion.MaxRows,
		SampleCap: cfg.Ingestion.SampleCap,
	}
	service := app.NewAnalysisService(pipeline, exec, store, defaults, logger)

	apiServer := api.NewServer(service, cfg.Ingestion.MaxFileSize, cfg.Server.GinMode, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: apiServer.Handler(),
	}
	opsSrv := &http.Server{
		Addr:    ":" + cfg.Server.OpsPort,
		Handler: opsRouter(store, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server: %v", err)
			stop()
		}
	}()
	go func() {
		logger.Info("ops listening on %s", opsSrv.Addr)
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown: %v", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops shutdown: %v", err)
	}

	exec.Close()
	if err := store.Close(); err != nil {
		logger.Warn("cache close: %v", err)
	}
	logger.Info("stopped")
}

// openBackend opens the configured persistent cache tier. A backend that
// fails to open degrades the cache to memory-only rather than blocking
// startup; the cache is an accelerator, not a dependency.
func openBackend(cfg *config.Config, logger *internal.Logger) ports.KeyValueStore {
	switch cfg.Cache.Backend {
	case "memory":
		return nil
	case "postgres":
		pg, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			logger.Warn("postgres cache unavailable, running memory-only: %v", err)
			return nil
		}
		// Local badger store backs up the shared tier so a database
		// outage does not drop the whole persistent layer.
		local, err := badger.Open(badger.Config{Path: cfg.Cache.Dir})
		if err != nil {
			logger.Warn("badger fallback unavailable: %v", err)
			return pg
		}
		return cache.NewFailover(pg, local, logger)
	default:
		store, err := badger.Open(badger.Config{Path: cfg.Cache.Dir})
		if err != nil {
			logger.Warn("badger cache unavailable, running memory-only: %v", err)
			return nil
		}
		return store
	}
}

// opsRouter serves health, cache counters and pprof on the ops port,
// away from the public API surface.
func opsRouter(store *cache.TieredStore, logger *internal.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/cache/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.Stats())
	})
	r.Post("/cache/cleanup", func(w http.ResponseWriter, req *http.Request) {
		removed, err := store.Cleanup(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logger.Info("cache cleanup removed %d expired entries", removed)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"removed": removed})
	})

	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/{name}", func(w http.ResponseWriter, req *http.Request) {
			pprof.Handler(chi.URLParam(req, "name")).ServeHTTP(w, req)
		})
	})
	return r
}
