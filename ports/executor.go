package ports

import (
	"context"
	"time"

	"datalens/domain/analysis"
	"datalens/domain/dataset"
)

// QueryOptions tunes a single execution.
type QueryOptions struct {
	UseCache        bool          `json:"use_cache"`
	CacheDuration   time.Duration `json:"cache_duration"` // zero means default TTL
	ForceBackground bool          `json:"force_background"`
}

// Query is a stateless computation request. Re-issuing an identical query
// against an identical dataset is safe and yields an identical result.
type Query struct {
	Operation string            `json:"operation"`
	Params    map[string]string `json:"params"`
	Options   QueryOptions      `json:"options"`
}

// ResponseMetadata describes how a query was executed. Cache hits report
// Cached=true with ExecutionTime 0: measured time is not meaningful for a
// hit and is not faked as nonzero.
type ResponseMetadata struct {
	ExecutionTime time.Duration `json:"execution_time"`
	RowCount      int           `json:"row_count"`
	Cached        bool          `json:"cached"`
	Background    bool          `json:"background"`
}

// Response pairs an analysis result with execution metadata.
type Response struct {
	Data     *analysis.Result `json:"data"`
	Metadata ResponseMetadata `json:"metadata"`
}

// QueryRunner executes analysis queries against a dataset.
type QueryRunner interface {
	Execute(ctx context.Context, ds *dataset.Dataset, q Query) (*Response, error)
}
