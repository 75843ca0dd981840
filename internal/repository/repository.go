// Package repository combines the remote catalog client with the local store.
//
// A successful fetch returns the fresh records immediately and reconciles the
// store in the background; a failed fetch returns the network error untouched
// and leaves any fallback decision to the caller.
package repository

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Remote is the part of the catalog client the repository needs.
type Remote interface {
	FetchProducts(ctx context.Context, limit int) ([]catalogs.Product, error)
}

// Strategy selects how a fresh response is written to the store.
type Strategy string

const (
	// StrategyReplace swaps the entire store content.
	StrategyReplace Strategy = "replace"
	// StrategyMerge updates by ID and deletes rows missing from the response.
	StrategyMerge Strategy = "merge"
)

// ParseStrategy parses a strategy name. An empty name selects StrategyReplace.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyReplace:
		return StrategyReplace, nil
	case StrategyMerge:
		return StrategyMerge, nil
	default:
		return "", errors.NewValidationError("reconcile_strategy", s, "must be replace or merge")
	}
}

// Repository fetches remote products and mirrors them into a Store.
type Repository struct {
	remote         Remote
	store          catalogs.Store
	strategy       Strategy
	persistTimeout time.Duration
	logger         *zerolog.Logger

	pending sync.WaitGroup

	// persistMu orders background writes; a write older than the last stored
	// response is dropped.
	persistMu sync.Mutex
	seq       atomic.Uint64
	written   uint64
}

// Option configures a Repository.
type Option func(*Repository)

// WithStrategy sets the reconciliation strategy.
func WithStrategy(s Strategy) Option {
	return func(r *Repository) {
		if s != "" {
			r.strategy = s
		}
	}
}

// WithPersistTimeout bounds each background store write.
func WithPersistTimeout(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.persistTimeout = d
		}
	}
}

// WithLogger sets the repository logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a repository.
func New(remote Remote, store catalogs.Store, opts ...Option) *Repository {
	r := &Repository{
		remote:         remote,
		store:          store,
		strategy:       StrategyReplace,
		persistTimeout: constants.DefaultPersistTimeout,
		logger:         logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured reconciliation strategy.
func (r *Repository) Strategy() Strategy {
	return r.strategy
}

// FetchProducts requests up to limit products. On success the store is
// reconciled in the background and the fresh records are returned at once.
// Network failures are returned unchanged.
func (r *Repository) FetchProducts(ctx context.Context, limit int) ([]catalogs.Product, error) {
	products, err := r.remote.FetchProducts(ctx, limit)
	if err != nil {
		r.logger.Debug().Err(err).Int("limit", limit).Msg("Remote fetch failed")
		return nil, err
	}

	r.persist(ctx, products)
	return products, nil
}

// FetchCache returns the stored products in display order. It never fails;
// an empty or unreadable store yields an empty list.
func (r *Repository) FetchCache(ctx context.Context) []catalogs.Product {
	return catalogs.Denormalize(r.store.FetchAllOrdered(ctx))
}

// FindCached returns the stored product with the given ID.
func (r *Repository) FindCached(ctx context.Context, id int64) (catalogs.Product, error) {
	for _, row := range r.store.FetchAllOrdered(ctx) {
		if row.ID == id {
			return catalogs.Denormalize([]catalogs.PersistedProduct{row})[0], nil
		}
	}
	return catalogs.Product{}, errors.NewNotFoundError("product", strconv.FormatInt(id, 10))
}

// Flush waits for background writes to finish or ctx to end.
func (r *Repository) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persist starts a detached write. It outlives the caller's cancellation but
// keeps its values, and has its own deadline.
func (r *Repository) persist(ctx context.Context, products []catalogs.Product) {
	seq := r.seq.Add(1)

	records := make([]catalogs.Product, len(products))
	copy(records, products)

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistTimeout)
		defer cancel()

		r.write(pctx, seq, records)
	}()
}

// write stores records unless a response newer than seq was already stored.
func (r *Repository) write(ctx context.Context, seq uint64, records []catalogs.Product) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	if seq < r.written {
		r.logger.Debug().Uint64("seq", seq).Msg("Skipping stale store write")
		return
	}

	var err error
	switch r.strategy {
	case StrategyMerge:
		err = r.store.Merge(ctx, records)
	default:
		err = r.store.ReplaceAll(ctx, records)
	}
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("strategy", string(r.strategy)).
			Int("records", len(records)).
			Msg("Failed to persist products")
		return
	}

	r.written = seq
	r.logger.Debug().
		Str("strategy", string(r.strategy)).
		Int("records", len(records)).
		Msg("Persisted products")
}
