package app

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"datalens/adapters/ingest"
	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/cache"
	"datalens/internal/errors"
	"datalens/internal/executor"
	"datalens/ports"
)

// AnalysisService orchestrates ingestion, the dataset registry and query
// execution. It is the single construction point wired into the API and
// the CLI; no package-level state exists anywhere beneath it.
type AnalysisService struct {
	pipeline *ingest.Pipeline
	executor *executor.Executor
	store    ports.CacheStore
	logger   *internal.Logger

	mu       sync.RWMutex
	datasets map[core.DatasetID]*dataset.Dataset

	defaults ingest.Options
}

// NewAnalysisService wires the service. store holds source-content
// fingerprints so re-uploads of identical bytes skip reparsing; it may be
// nil to disable that.
func NewAnalysisService(pipeline *ingest.Pipeline, exec *executor.Executor, store ports.CacheStore, defaults ingest.Options, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{
		pipeline: pipeline,
		executor: exec,
		store:    store,
		logger:   logger.Named("service"),
		datasets: make(map[core.DatasetID]*dataset.Dataset),
		defaults: defaults,
	}
}

// IngestFile buffers the content and delegates to IngestBytes. The
// pipeline accumulates every value in memory anyway, so buffering up
// front costs one extra copy and buys a content fingerprint.
func (s *AnalysisService) IngestFile(ctx context.Context, filename string, content io.Reader, onProgress ports.ProgressFunc) (*dataset.Dataset, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.WithCode(errors.CodeParseError, err)
	}
	return s.IngestBytes(ctx, filename, data, onProgress)
}

// IngestBytes fingerprints the raw content first: identical bytes whose
// dataset is still registered resolve straight from the cache without
// reparsing. Otherwise it picks a row source by file extension, runs the
// pipeline, registers the dataset and records the content fingerprint.
func (s *AnalysisService) IngestBytes(ctx context.Context, filename string, content []byte, onProgress ports.ProgressFunc) (*dataset.Dataset, error) {
	key := cache.SourceKey(core.NewFingerprint(content))
	if ds := s.cachedSource(ctx, key); ds != nil {
		s.logger.Debug("source cache hit for %s, skipping reparse", filename)
		return ds, nil
	}

	source, err := s.openSource(filename, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer source.Close()

	opts := s.defaults
	opts.OnProgress = onProgress

	ds, err := s.pipeline.Ingest(ctx, filename, source, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.datasets[ds.ID()] = ds
	s.mu.Unlock()
	s.rememberSource(ctx, key, ds)
	return ds, nil
}

func (s *AnalysisService) openSource(filename string, content io.Reader) (ports.RowSource, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return ingest.NewExcelSource(content)
	default:
		return ingest.NewCSVSource(io.NopCloser(content))
	}
}

// cachedSource resolves a source key to a still-registered dataset. A
// stale mapping, one whose dataset was removed since, is a miss.
func (s *AnalysisService) cachedSource(ctx context.Context, key string) *dataset.Dataset {
	if s.store == nil {
		return nil
	}
	data, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return nil
	}
	ds, err := s.Dataset(core.DatasetID(data))
	if err != nil {
		return nil
	}
	return ds
}

// rememberSource maps a content fingerprint to its dataset ID. The entry
// carries the dataset tag, so Remove drops it together with the cached
// results.
func (s *AnalysisService) rememberSource(ctx context.Context, key string, ds *dataset.Dataset) {
	if s.store == nil {
		return
	}
	err := s.store.Set(ctx, key, []byte(ds.ID()), ports.SetOptions{
		Tags: []string{cache.DatasetTag(ds)},
	})
	if err != nil {
		s.logger.Warn("failed to record source fingerprint: %v", err)
	}
}

// Dataset returns a registered dataset by ID.
func (s *AnalysisService) Dataset(id core.DatasetID) (*dataset.Dataset, error) {
	s.mu.RLock()
	ds, ok := s.datasets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("dataset")
	}
	return ds, nil
}

// Datasets lists all registered datasets.
func (s *AnalysisService) Datasets() []*dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*dataset.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	return out
}

// Remove drops a dataset from the registry and invalidates every cached
// entry derived from it, the source fingerprint included.
func (s *AnalysisService) Remove(ctx context.Context, id core.DatasetID) error {
	s.mu.Lock()
	ds, ok := s.datasets[id]
	delete(s.datasets, id)
	s.mu.Unlock()
	if !ok {
		return errors.NotFound("dataset")
	}

	if removed, err := s.executor.InvalidateDataset(ctx, ds); err == nil && removed > 0 {
		s.logger.Debug("invalidated %d cached entries for dataset %s", removed, id)
	}
	return nil
}

// Execute runs one analysis query against a registered dataset.
func (s *AnalysisService) Execute(ctx context.Context, id core.DatasetID, q ports.Query) (*ports.Response, error) {
	ds, err := s.Dataset(id)
	if err != nil {
		return nil, err
	}
	return s.executor.Execute(ctx, ds, q)
}
