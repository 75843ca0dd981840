// Package leveldb provides a catalogs.Store on top of an embedded LevelDB database.
//
// Each row is stored as JSON under the key "product/<id>". Reconciliations
// commit as a single batch and reads iterate a snapshot, so readers observe
// either the previous or the next catalog.
package leveldb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

const keyPrefix = "product/"

var _ catalogs.Store = (*Store)(nil)

// Store is a LevelDB backed store.
type Store struct {
	db     *leveldb.DB
	logger *zerolog.Logger

	// writeMu serializes reconciliations so each batch is computed from the
	// state it replaces.
	writeMu sync.Mutex
}

// Option is a function that configures a Store
type Option func(*Store)

// WithLogger sets the logger used for read failures and reconciliation reports.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens or creates a database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.NewValidationError("dir", dir, "directory is required for leveldb store")
	}
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.WrapIO("open", dir, err)
	}
	return newStore(db, opts...), nil
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory(opts ...Option) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.WrapIO("open", "memory", err)
	}
	return newStore(db, opts...), nil
}

func newStore(db *leveldb.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceAll deletes every row and inserts the normalized records in one batch.
func (s *Store) ReplaceAll(ctx context.Context, records []catalogs.Product) error {
	rows, report := catalogs.Normalize(records)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.keys()
	if err != nil {
		return errors.WrapResource("replace", "store", "", err)
	}

	batch := new(leveldb.Batch)
	for _, key := range existing {
		batch.Delete(key)
	}
	if err := putRows(batch, rows); err != nil {
		return errors.WrapResource("replace", "store", "", err)
	}
	if err := s.commit(ctx, batch); err != nil {
		return errors.WrapResource("replace", "store", "", err)
	}

	s.logReport(report, len(rows))
	return nil
}

// Merge writes incoming rows whose stored value differs and deletes rows
// whose ID is not incoming, in one batch. Unchanged rows are not rewritten.
func (s *Store) Merge(ctx context.Context, records []catalogs.Product) error {
	rows, report := catalogs.Normalize(records)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.values()
	if err != nil {
		return errors.WrapResource("merge", "store", "", err)
	}

	batch := new(leveldb.Batch)
	upserted, unchanged := 0, 0
	for _, row := range rows {
		k := key(row.ID)
		value, err := json.Marshal(row)
		if err != nil {
			return errors.WrapResource("merge", "store", "", fmt.Errorf("encoding product %d: %w", row.ID, err))
		}
		prev, ok := existing[string(k)]
		delete(existing, string(k))
		if ok && bytes.Equal(prev, value) {
			unchanged++
			continue
		}
		batch.Put(k, value)
		upserted++
	}
	for k := range existing {
		batch.Delete([]byte(k))
	}
	if batch.Len() > 0 {
		if err := s.commit(ctx, batch); err != nil {
			return errors.WrapResource("merge", "store", "", err)
		}
	} else if err := ctx.Err(); err != nil {
		return errors.WrapResource("merge", "store", "", err)
	}

	s.logger.Debug().
		Int("upserted", upserted).
		Int("unchanged", unchanged).
		Int("deleted", len(existing)).
		Msg("Merged leveldb catalog")
	s.logReport(report, len(rows))
	return nil
}

// FetchAllOrdered reads a snapshot of every row in ascending OrderNumber.
func (s *Store) FetchAllOrdered(_ context.Context) []catalogs.PersistedProduct {
	rows, err := s.readAll()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read leveldb catalog")
		return []catalogs.PersistedProduct{}
	}
	catalogs.SortByOrder(rows)
	return rows
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) readAll() ([]catalogs.PersistedProduct, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	iter := snap.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	rows := []catalogs.PersistedProduct{}
	for iter.Next() {
		var row catalogs.PersistedProduct
		if err := json.Unmarshal(iter.Value(), &row); err != nil {
			return nil, errors.WrapParse("json", string(iter.Key()), err)
		}
		rows = append(rows, row)
	}
	return rows, iter.Error()
}

func (s *Store) keys() ([][]byte, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	var keys [][]byte
	for iter.Next() {
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		keys = append(keys, k)
	}
	return keys, iter.Error()
}

// values returns the stored encoding of every row keyed by its database key.
func (s *Store) values() (map[string][]byte, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	values := make(map[string][]byte)
	for iter.Next() {
		values[string(iter.Key())] = bytes.Clone(iter.Value())
	}
	return values, iter.Error()
}

func (s *Store) commit(ctx context.Context, batch *leveldb.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (s *Store) logReport(report catalogs.NormalizeReport, stored int) {
	if report.Dropped() > 0 {
		s.logger.Warn().
			Int("missing_id", report.MissingID).
			Ints64("duplicate_ids", report.Duplicates).
			Msg("Dropped records that could not be keyed")
	}
	s.logger.Debug().Int("rows", stored).Msg("LevelDB catalog reconciled")
}

func putRows(batch *leveldb.Batch, rows []catalogs.PersistedProduct) error {
	for _, row := range rows {
		value, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding product %d: %w", row.ID, err)
		}
		batch.Put(key(row.ID), value)
	}
	return nil
}

func key(id int64) []byte {
	return []byte(keyPrefix + strconv.FormatInt(id, 10))
}
