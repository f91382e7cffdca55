package executor

import (
	"context"
	"strconv"
	"testing"
	"time"

	"datalens/domain/analysis"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/cache"
	"datalens/internal/errors"
	"datalens/ports"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func numericField(name string, values []float64) dataset.Field {
	raw := make([]string, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		raw[i] = strconv.FormatFloat(v, 'g', -1, 64)
		valid[i] = true
	}
	return dataset.Field{
		Name:   name,
		Type:   dataset.TypeNumber,
		Raw:    raw,
		Column: &dataset.NumericColumn{Values: values, Valid: valid},
	}
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	a := make([]float64, 10)
	b := make([]float64, 10)
	for i := range a {
		a[i] = float64(i + 1)
		b[i] = float64(2 * (i + 1))
	}
	ds, err := dataset.New("test", []dataset.Field{
		numericField("a", a),
		numericField("b", b),
	})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func newTestExecutor(t *testing.T, withWorker bool) *Executor {
	t.Helper()
	store := cache.NewTieredStore(nil, time.Minute, testLogger())
	var worker *Worker
	if withWorker {
		worker = NewWorker(testLogger())
	}
	e := New(store, worker, testLogger())
	t.Cleanup(e.Close)
	return e
}

func TestExecutor_DescriptiveInProcess(t *testing.T) {
	e := newTestExecutor(t, false)
	ds := testDataset(t)

	resp, err := e.Execute(context.Background(), ds, ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "b"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Data.Kind != analysis.KindDescriptive || resp.Data.Descriptive == nil {
		t.Fatalf("unexpected result shape: %+v", resp.Data)
	}
	if resp.Data.Descriptive.Mean != 11 {
		t.Errorf("mean = %g, want 11", resp.Data.Descriptive.Mean)
	}
	if resp.Metadata.Cached || resp.Metadata.Background {
		t.Errorf("fresh in-process call flagged cached=%v background=%v",
			resp.Metadata.Cached, resp.Metadata.Background)
	}
	if resp.Metadata.RowCount != 10 {
		t.Errorf("row count %d, want 10", resp.Metadata.RowCount)
	}
}

func TestExecutor_CacheHitConvention(t *testing.T) {
	e := newTestExecutor(t, false)
	ds := testDataset(t)
	q := ports.Query{
		Operation: OpRegression,
		Params:    map[string]string{"x": "a", "y": "b"},
		Options:   ports.QueryOptions{UseCache: true},
	}

	first, err := e.Execute(context.Background(), ds, q)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.Metadata.Cached {
		t.Fatal("first call must compute, not hit")
	}

	second, err := e.Execute(context.Background(), ds, q)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.Metadata.Cached {
		t.Fatal("second identical call must hit the cache")
	}
	if second.Metadata.ExecutionTime != 0 {
		t.Errorf("cache hit execution time = %v, want 0 by convention", second.Metadata.ExecutionTime)
	}
	if second.Data.Regression.Slope() != first.Data.Regression.Slope() {
		t.Errorf("cached slope %g differs from computed %g",
			second.Data.Regression.Slope(), first.Data.Regression.Slope())
	}
}

func TestExecutor_CacheDisabled(t *testing.T) {
	e := newTestExecutor(t, false)
	ds := testDataset(t)
	q := ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "a"},
	}

	for i := 0; i < 2; i++ {
		resp, err := e.Execute(context.Background(), ds, q)
		if err != nil {
			t.Fatalf("Execute %d: %v", i, err)
		}
		if resp.Metadata.Cached {
			t.Fatalf("call %d hit the cache with caching disabled", i)
		}
	}
}

func TestExecutor_InvalidateDataset(t *testing.T) {
	e := newTestExecutor(t, false)
	ds := testDataset(t)
	q := ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "a"},
		Options:   ports.QueryOptions{UseCache: true},
	}

	if _, err := e.Execute(context.Background(), ds, q); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	removed, err := e.InvalidateDataset(context.Background(), ds)
	if err != nil {
		t.Fatalf("InvalidateDataset: %v", err)
	}
	if removed == 0 {
		t.Fatal("expected at least one invalidated entry")
	}

	resp, err := e.Execute(context.Background(), ds, q)
	if err != nil {
		t.Fatalf("Execute after invalidation: %v", err)
	}
	if resp.Metadata.Cached {
		t.Error("invalidated entry must not serve a hit")
	}
}

func TestExecutor_BackgroundDispatch(t *testing.T) {
	e := newTestExecutor(t, true)
	ds := testDataset(t)

	resp, err := e.Execute(context.Background(), ds, ports.Query{
		Operation: OpCorrelation,
		Params:    map[string]string{"x": "a", "y": "b"},
		Options:   ports.QueryOptions{ForceBackground: true},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Metadata.Background {
		t.Error("forced background call should report Background=true")
	}
	if resp.Data.Correlation == nil || resp.Data.Correlation.Coefficient < 0.999 {
		t.Errorf("correlation of y=2x should be 1, got %+v", resp.Data.Correlation)
	}
}

func TestExecutor_BackgroundAnalysisErrorSurfaces(t *testing.T) {
	e := newTestExecutor(t, true)
	ds := testDataset(t)

	// A missing field is an analysis outcome, not a channel fault; the
	// executor must not mask it with an in-process retry.
	_, err := e.Execute(context.Background(), ds, ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "missing"},
		Options:   ports.QueryOptions{ForceBackground: true},
	})
	if err == nil {
		t.Fatal("missing field must fail")
	}
	if errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("error code %s, want %s", errors.GetCode(err), errors.CodeNotFound)
	}
}

func TestExecutor_UnknownOperation(t *testing.T) {
	e := newTestExecutor(t, false)
	ds := testDataset(t)

	_, err := e.Execute(context.Background(), ds, ports.Query{Operation: "pivot"})
	if err == nil {
		t.Fatal("unknown operation must fail")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestWorker_CorrelationRoundTrip(t *testing.T) {
	w := NewWorker(testLogger())
	defer w.Close()
	ds := testDataset(t)

	for i := 0; i < 3; i++ {
		result, rows, err := w.submit(context.Background(), ds, ports.Query{
			Operation: OpDescriptive,
			Params:    map[string]string{"field": "a"},
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if result.Descriptive == nil || rows != 10 {
			t.Fatalf("submit %d: result %+v rows %d", i, result, rows)
		}
	}
}

func TestWorker_CancelledCallDoesNotWedge(t *testing.T) {
	w := NewWorker(testLogger())
	defer w.Close()
	ds := testDataset(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := w.submit(cancelled, ds, ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "a"},
	})
	if err == nil {
		t.Fatal("cancelled submit must fail")
	}
	if errors.GetCode(err) != errors.CodeCancelled {
		t.Errorf("error code %s, want %s", errors.GetCode(err), errors.CodeCancelled)
	}

	// The worker stays usable for the next caller.
	result, _, err := w.submit(context.Background(), ds, ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "a"},
	})
	if err != nil {
		t.Fatalf("submit after cancellation: %v", err)
	}
	if result == nil {
		t.Fatal("nil result after recovery")
	}
}

func TestWorker_ErrorsKeepChannelAlive(t *testing.T) {
	w := NewWorker(testLogger())
	defer w.Close()
	ds := testDataset(t)

	_, _, err := w.submit(context.Background(), ds, ports.Query{Operation: "bogus"})
	if err == nil {
		t.Fatal("bogus operation must fail")
	}

	result, _, err := w.submit(context.Background(), ds, ports.Query{
		Operation: OpDescriptive,
		Params:    map[string]string{"field": "b"},
	})
	if err != nil {
		t.Fatalf("submit after error: %v", err)
	}
	if result.Descriptive.Mean != 11 {
		t.Errorf("mean = %g, want 11", result.Descriptive.Mean)
	}
}
