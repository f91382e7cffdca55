package ports

import (
	"io"
)

// RowSource streams raw rows from a tabular file. Implementations exist
// for delimited text and spreadsheet workbooks; the ingestion pipeline is
// agnostic to which one it consumes.
type RowSource interface {
	// Header returns the column names taken from the first row.
	Header() ([]string, error)

	// Next returns the next data row, or io.EOF when the source is
	// exhausted. Short rows are padded by the caller, not the source.
	Next() ([]string, error)

	// TotalRows reports the number of data rows if known up front,
	// or -1 for streaming sources.
	TotalRows() int

	io.Closer
}

// Progress describes ingestion progress after one chunk. Events are
// emitted in strictly increasing ProcessedRows order.
type Progress struct {
	ProcessedRows int     `json:"processed_rows"`
	TotalRows     int     `json:"total_rows"` // -1 when unknown
	Percentage    float64 `json:"percentage"` // 0 when total unknown
	ChunkIndex    int     `json:"chunk_index"`
}

// ProgressFunc receives progress events. It is called synchronously from
// the pipeline; implementations must not block.
type ProgressFunc func(Progress)
