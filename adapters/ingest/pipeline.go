package ingest

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"datalens/adapters/infer"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/ports"

	"golang.org/x/sync/errgroup"
)

// Options tunes a single ingestion run.
type Options struct {
	// ChunkSize bounds how many rows are decoded per unit of work.
	// Cancellation and progress are handled at chunk boundaries.
	ChunkSize int

	// MaxRows caps accumulation; rows beyond it are dropped without
	// error (silent truncation).
	MaxRows int

	// SampleCap bounds how many values per column feed the type vote.
	// Columns beyond the cap are stride-sampled before inference; the
	// converted column always covers every row. Zero means no cap.
	SampleCap int

	// OnProgress receives one event per completed chunk plus a final
	// event at stream end. May be nil.
	OnProgress ports.ProgressFunc
}

const (
	defaultChunkSize = 5000
	minChunkSize     = 1000
	maxChunkSize     = 10000
)

func (o *Options) normalize() {
	if o.ChunkSize == 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.ChunkSize < minChunkSize {
		o.ChunkSize = minChunkSize
	}
	if o.ChunkSize > maxChunkSize {
		o.ChunkSize = maxChunkSize
	}
}

// Pipeline streams a row source, buffers fixed-size chunks into
// column-major accumulators, and runs type inference once per field over
// the fully accumulated values at stream end.
type Pipeline struct {
	engine   *infer.Engine
	patterns *infer.PatternClassifier
	logger   *internal.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(logger *internal.Logger) *Pipeline {
	return &Pipeline{
		engine:   infer.NewEngine(),
		patterns: infer.NewPatternClassifier(100),
		logger:   logger.Named("ingest"),
	}
}

// Ingest consumes the source to completion and returns the immutable
// typed dataset. It fails with PARSE_ERROR on malformed structure and
// with CANCELLED when ctx is done; cancellation is checked between
// chunks, never mid-chunk, and partial accumulation is discarded.
func (p *Pipeline) Ingest(ctx context.Context, name string, source ports.RowSource, opts Options) (*dataset.Dataset, error) {
	opts.normalize()

	header, err := source.Header()
	if err != nil {
		return nil, errors.ParseError("missing header row")
	}
	if len(header) == 0 {
		return nil, errors.ParseError("missing header row")
	}
	fieldNames := dedupeNames(header)

	// Column-major accumulation: one buffer per field, index-aligned.
	columns := make([][]string, len(fieldNames))
	totalRows := source.TotalRows()

	processed := 0
	chunkIndex := 0
	truncated := false

	for {
		// Cooperative cancellation at the chunk boundary only; an
		// in-flight chunk decode runs to completion first.
		select {
		case <-ctx.Done():
			for i := range columns {
				columns[i] = nil
			}
			return nil, errors.Cancelled("ingestion cancelled")
		default:
		}

		rowsInChunk, eof, err := p.readChunk(source, columns, opts.ChunkSize, opts.MaxRows, processed)
		if err != nil {
			return nil, err
		}
		processed += rowsInChunk

		if rowsInChunk > 0 && opts.OnProgress != nil {
			opts.OnProgress(progressEvent(processed, totalRows, chunkIndex))
		}
		chunkIndex++

		if opts.MaxRows > 0 && processed >= opts.MaxRows {
			truncated = true
			break
		}
		if eof {
			break
		}
	}

	if processed == 0 {
		return nil, errors.ParseError("zero valid data rows")
	}
	if truncated {
		p.logger.Debug("truncated ingestion of %s at %d rows", name, processed)
	}

	fields, err := p.inferFields(ctx, fieldNames, columns, opts.SampleCap)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.New(name, fields)
	if err != nil {
		return nil, errors.WithCode(errors.CodeParseError, err)
	}
	p.logger.Info("ingested %s: %d rows, %d fields", name, ds.RowCount(), ds.FieldCount())
	return ds, nil
}

// readChunk decodes up to chunkSize rows into the column buffers. Short
// rows are padded with empty strings; extra cells beyond the header are
// dropped.
func (p *Pipeline) readChunk(source ports.RowSource, columns [][]string, chunkSize, maxRows, processed int) (int, bool, error) {
	read := 0
	for read < chunkSize {
		if maxRows > 0 && processed+read >= maxRows {
			return read, false, nil
		}
		row, err := source.Next()
		if err == io.EOF {
			return read, true, nil
		}
		if err != nil {
			return read, false, err
		}

		for i := range columns {
			if i < len(row) {
				columns[i] = append(columns[i], row[i])
			} else {
				columns[i] = append(columns[i], "")
			}
		}
		read++
	}
	return read, false, nil
}

// inferFields runs the inference engine once per field over its fully
// accumulated values, in parallel across columns. Columns longer than
// sampleCap vote on a stride-sampled subset; conversion and statistics
// still cover every row.
func (p *Pipeline) inferFields(ctx context.Context, names []string, columns [][]string, sampleCap int) ([]dataset.Field, error) {
	fields := make([]dataset.Field, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range names {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled("ingestion cancelled")
			}
			sample := columns[i]
			if sampleCap > 0 {
				sample = StrideSample(columns[i], sampleCap)
			}
			fieldType, column, fieldStats := p.engine.InferSampled(columns[i], sample)
			field := dataset.Field{
				Name:   names[i],
				Type:   fieldType,
				Raw:    columns[i],
				Column: column,
				Stats:  fieldStats,
			}
			if fieldType == dataset.TypeString {
				field.Pattern = p.patterns.Classify(columns[i])
			}
			fields[i] = field
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fields, nil
}

func progressEvent(processed, total, chunkIndex int) ports.Progress {
	ev := ports.Progress{
		ProcessedRows: processed,
		TotalRows:     total,
		ChunkIndex:    chunkIndex,
	}
	if total > 0 {
		ev.Percentage = float64(processed) / float64(total) * 100
		if ev.Percentage > 100 {
			ev.Percentage = 100
		}
	}
	return ev
}

// dedupeNames makes header names unique while keeping column order; blank
// headers get positional names.
func dedupeNames(header []string) []string {
	names := make([]string, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := counts[name]; dup {
			counts[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		counts[name] = 0
		names[i] = name
	}
	return names
}
