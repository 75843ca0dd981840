// Package memory provides an in-process catalogs.Store.
package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/logging"
)

var _ catalogs.Store = (*Store)(nil)

// Store keeps rows in a map guarded by a RWMutex. Writes build the next state
// aside and swap it in under the write lock.
type Store struct {
	mu     sync.RWMutex
	rows   map[int64]catalogs.PersistedProduct
	logger *zerolog.Logger
}

// Option is a function that configures a Store
type Option func(*Store)

// WithLogger sets the logger used for reconciliation reports.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		rows:   make(map[int64]catalogs.PersistedProduct),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceAll swaps the whole content for the normalized records.
func (s *Store) ReplaceAll(ctx context.Context, records []catalogs.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, report := catalogs.Normalize(records)
	next := make(map[int64]catalogs.PersistedProduct, len(rows))
	for _, row := range rows {
		next[row.ID] = row
	}

	s.mu.Lock()
	s.rows = next
	s.mu.Unlock()

	s.logReport(report, len(rows))
	return nil
}

// Merge updates rows in place, inserts new ones, and deletes the rest.
func (s *Store) Merge(ctx context.Context, records []catalogs.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, report := catalogs.Normalize(records)
	incoming := make(map[int64]struct{}, len(rows))

	s.mu.Lock()
	for _, row := range rows {
		incoming[row.ID] = struct{}{}
		s.rows[row.ID] = row
	}
	for id := range s.rows {
		if _, ok := incoming[id]; !ok {
			delete(s.rows, id)
		}
	}
	s.mu.Unlock()

	s.logReport(report, len(rows))
	return nil
}

// FetchAllOrdered returns a copy of every row in ascending OrderNumber.
func (s *Store) FetchAllOrdered(_ context.Context) []catalogs.PersistedProduct {
	s.mu.RLock()
	rows := make([]catalogs.PersistedProduct, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	s.mu.RUnlock()

	catalogs.SortByOrder(rows)
	return rows
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) logReport(report catalogs.NormalizeReport, stored int) {
	if report.Dropped() > 0 {
		s.logger.Warn().
			Int("missing_id", report.MissingID).
			Ints64("duplicate_ids", report.Duplicates).
			Msg("Dropped records that could not be keyed")
	}
	s.logger.Debug().Int("rows", stored).Msg("Memory store reconciled")
}
