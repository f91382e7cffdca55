package cache

import (
	"context"
	"sync/atomic"

	"datalens/internal"
	"datalens/ports"
)

// Failover decorates two KeyValueStores: every operation tries the
// primary first and falls back to the secondary on error. The first
// transition is logged; subsequent calls keep retrying the primary, so a
// recovered backend is picked up without intervention. Callers that want
// a permanent switch latch it themselves.
type Failover struct {
	primary   ports.KeyValueStore
	secondary ports.KeyValueStore
	logger    *internal.Logger
	tripped   atomic.Bool
}

// NewFailover wraps primary with a secondary fallback.
func NewFailover(primary, secondary ports.KeyValueStore, logger *internal.Logger) *Failover {
	return &Failover{
		primary:   primary,
		secondary: secondary,
		logger:    logger.Named("cache-failover"),
	}
}

func (f *Failover) noteFailure(op string, err error) {
	if f.tripped.CompareAndSwap(false, true) {
		f.logger.Warn("primary store failed on %s, falling back to secondary: %v", op, err)
	}
}

func (f *Failover) noteRecovery() {
	if f.tripped.CompareAndSwap(true, false) {
		f.logger.Info("primary store recovered")
	}
}

func (f *Failover) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := f.primary.Get(ctx, key)
	if err == nil {
		f.noteRecovery()
		return data, ok, nil
	}
	f.noteFailure("get", err)
	return f.secondary.Get(ctx, key)
}

func (f *Failover) Put(ctx context.Context, key string, value []byte) error {
	if err := f.primary.Put(ctx, key, value); err != nil {
		f.noteFailure("put", err)
		return f.secondary.Put(ctx, key, value)
	}
	f.noteRecovery()
	return nil
}

func (f *Failover) Delete(ctx context.Context, key string) error {
	err := f.primary.Delete(ctx, key)
	if err != nil {
		f.noteFailure("delete", err)
	} else {
		f.noteRecovery()
	}
	// Deletes propagate to both stores so a fallback read cannot
	// resurrect an invalidated entry.
	if serr := f.secondary.Delete(ctx, key); serr != nil && err == nil {
		return nil
	}
	return err
}

func (f *Failover) Keys(ctx context.Context) ([]string, error) {
	keys, err := f.primary.Keys(ctx)
	if err == nil {
		f.noteRecovery()
		return keys, nil
	}
	f.noteFailure("keys", err)
	return f.secondary.Keys(ctx)
}

func (f *Failover) Close() error {
	perr := f.primary.Close()
	serr := f.secondary.Close()
	if perr != nil {
		return perr
	}
	return serr
}
