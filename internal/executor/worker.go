package executor

import (
	"context"
	"fmt"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/ports"
)

// The worker protocol is a closed tagged-variant message set: the
// receiver matches exhaustively on Kind instead of probing payload types
// at runtime. Caller and worker share no mutable memory; datasets cross
// the channel only because they are immutable once constructed.

type requestKind string

const (
	requestExecute  requestKind = "execute"
	requestShutdown requestKind = "shutdown"
)

type workerRequest struct {
	Kind          requestKind
	CorrelationID core.QueryID
	Dataset       *dataset.Dataset
	Query         ports.Query
}

type workerResponse struct {
	CorrelationID core.QueryID
	Result        *analysis.Result
	RowCount      int
	Err           error
}

// Worker is an isolated background execution unit consuming requests from
// a channel pair. One response is produced per request; only one call may
// be in flight per channel at a time, which the executor serializes.
type Worker struct {
	requests  chan workerRequest
	responses chan workerResponse
	done      chan struct{}
	logger    *internal.Logger
}

// NewWorker starts the background execution unit.
func NewWorker(logger *internal.Logger) *Worker {
	w := &Worker{
		requests: make(chan workerRequest),
		// Buffered so a caller that gave up on a cancelled call never
		// wedges the worker mid-send.
		responses: make(chan workerResponse, 1),
		done:      make(chan struct{}),
		logger:    logger.Named("worker"),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for req := range w.requests {
		switch req.Kind {
		case requestShutdown:
			return
		case requestExecute:
			w.responses <- w.handle(req)
		default:
			w.responses <- workerResponse{
				CorrelationID: req.CorrelationID,
				Err:           errors.SystemError(fmt.Sprintf("unknown request kind %q", req.Kind), core.ErrWorkerFailed),
			}
		}
	}
}

// handle computes one request, converting a panic into an error response
// so a bad computation cannot take the channel down with it.
func (w *Worker) handle(req workerRequest) (resp workerResponse) {
	resp.CorrelationID = req.CorrelationID
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker panic on %s: %v", req.Query.Operation, r)
			resp.Result = nil
			resp.Err = errors.SystemError(fmt.Sprintf("worker panic: %v", r), core.ErrWorkerFailed)
		}
	}()

	result, rows, err := runOperation(req.Dataset, req.Query)
	resp.Result = result
	resp.RowCount = rows
	resp.Err = err
	return resp
}

// submit sends one request and awaits its single response. The response
// is matched on correlation ID; a mismatch means the channel discipline
// was violated and is surfaced as a worker failure.
func (w *Worker) submit(ctx context.Context, ds *dataset.Dataset, q ports.Query) (*analysis.Result, int, error) {
	// Drop any orphaned response left behind by a cancelled predecessor.
	select {
	case <-w.responses:
	default:
	}

	id := core.QueryID(core.NewID())
	req := workerRequest{
		Kind:          requestExecute,
		CorrelationID: id,
		Dataset:       ds,
		Query:         q,
	}

	select {
	case w.requests <- req:
	case <-w.done:
		return nil, 0, errors.SystemError("worker channel closed", core.ErrWorkerFailed)
	case <-ctx.Done():
		return nil, 0, errors.Cancelled("query cancelled before dispatch")
	}

	for {
		select {
		case resp := <-w.responses:
			if resp.CorrelationID != id {
				// Late response from a cancelled predecessor; skip it.
				continue
			}
			return resp.Result, resp.RowCount, resp.Err
		case <-w.done:
			return nil, 0, errors.SystemError("worker exited mid-call", core.ErrWorkerFailed)
		case <-ctx.Done():
			// The in-flight computation runs to completion in the
			// worker; its response is drained by the next call.
			return nil, 0, errors.Cancelled("query cancelled awaiting worker")
		}
	}
}

// Close shuts the worker down and waits for it to exit.
func (w *Worker) Close() {
	select {
	case w.requests <- workerRequest{Kind: requestShutdown}:
	case <-w.done:
	}
	<-w.done
}
