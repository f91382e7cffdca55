package executor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"datalens/domain/analysis"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/cache"
	"datalens/internal/errors"
	"datalens/ports"
)

// Executor is the façade that routes a computation request either to the
// background worker or to the in-process path, applies the cache layer,
// and normalizes results and errors. It is constructed explicitly and
// injected; the process owns its lifecycle.
type Executor struct {
	store  *cache.TieredStore
	worker *Worker
	logger *internal.Logger

	// One in-flight background call per worker channel; concurrent
	// callers queue here rather than multiplex.
	workerMu sync.Mutex
}

// New creates an executor. worker may be nil to disable background
// dispatch entirely.
func New(store *cache.TieredStore, worker *Worker, logger *internal.Logger) *Executor {
	return &Executor{
		store:  store,
		worker: worker,
		logger: logger.Named("executor"),
	}
}

// Execute runs one query against a dataset. Every execution path records
// elapsed time via the monotonic clock; cache hits report Cached=true
// with a zero execution time by convention.
func (e *Executor) Execute(ctx context.Context, ds *dataset.Dataset, q ports.Query) (*ports.Response, error) {
	start := time.Now()

	var key string
	if q.Options.UseCache {
		key = cache.QueryKey(ds, q.Operation, q.Params)
		if data, ok, err := e.store.Get(ctx, key); err == nil && ok {
			var result analysis.Result
			if err := json.Unmarshal(data, &result); err == nil {
				return &ports.Response{
					Data: &result,
					Metadata: ports.ResponseMetadata{
						ExecutionTime: 0,
						RowCount:      ds.RowCount(),
						Cached:        true,
					},
				}, nil
			}
			// An undecodable entry is treated as a miss and replaced
			// below.
			_ = e.store.Invalidate(ctx, key)
		}
	}

	result, rows, background, err := e.compute(ctx, ds, q)
	if err != nil {
		return nil, err
	}

	if q.Options.UseCache {
		if data, merr := json.Marshal(result); merr == nil {
			serr := e.store.Set(ctx, key, data, ports.SetOptions{
				TTL:  q.Options.CacheDuration,
				Tags: []string{cache.DatasetTag(ds)},
			})
			if serr != nil {
				e.logger.Warn("failed to cache result for %s: %v", q.Operation, serr)
			}
		} else {
			e.logger.Warn("result for %s is not serializable, skipping cache: %v", q.Operation, merr)
		}
	}

	return &ports.Response{
		Data: result,
		Metadata: ports.ResponseMetadata{
			ExecutionTime: time.Since(start),
			RowCount:      rows,
			Background:    background,
		},
	}, nil
}

// compute picks the execution path. A worker failure downgrades to an
// in-process retry for this call only, with a logged warning; the next
// background request tries the worker again unless the caller latched
// the failover itself.
func (e *Executor) compute(ctx context.Context, ds *dataset.Dataset, q ports.Query) (*analysis.Result, int, bool, error) {
	if q.Options.ForceBackground && e.worker != nil {
		e.workerMu.Lock()
		result, rows, err := e.worker.submit(ctx, ds, q)
		e.workerMu.Unlock()
		if err == nil {
			return result, rows, true, nil
		}
		if errors.GetCode(err) != errors.CodeSystemError {
			// Analysis and cancellation errors are real outcomes, not
			// channel faults; retrying in-process cannot change them.
			return nil, 0, false, err
		}
		e.logger.Warn("background execution failed for %s, retrying in-process: %v", q.Operation, err)
	}

	result, rows, err := runOperation(ds, q)
	return result, rows, false, err
}

// InvalidateDataset drops every cached result derived from ds.
func (e *Executor) InvalidateDataset(ctx context.Context, ds *dataset.Dataset) (int, error) {
	return e.store.InvalidateByTag(ctx, cache.DatasetTag(ds))
}

// Close shuts down the worker. The cache store is owned by the caller.
func (e *Executor) Close() {
	if e.worker != nil {
		e.worker.Close()
	}
}

var _ ports.QueryRunner = (*Executor)(nil)
