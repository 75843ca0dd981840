// Package files provides a catalogs.Store persisted as a single YAML document.
//
// Every write renders the complete document to a temporary file in the same
// directory and renames it over the previous one, so a crash leaves either the
// old or the new catalog on disk.
package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

var _ catalogs.Store = (*Store)(nil)

// document is the on-disk layout.
type document struct {
	UpdatedAt time.Time                   `yaml:"updated_at"`
	Products  []catalogs.PersistedProduct `yaml:"products"`
}

// Store is a YAML file backed store.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *zerolog.Logger
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

// New creates a store writing to path. The parent directory is created if needed.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", path, "path is required for files store")
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	s := &Store{path: path, logger: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// ReplaceAll rewrites the document with the normalized records.
func (s *Store) ReplaceAll(ctx context.Context, records []catalogs.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, report := catalogs.Normalize(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(rows); err != nil {
		return errors.WrapResource("replace", "store", s.path, err)
	}
	s.logReport(report, len(rows))
	return nil
}

// Merge reconciles the stored rows with records by ID and rewrites the document.
func (s *Store) Merge(ctx context.Context, records []catalogs.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, report := catalogs.Normalize(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Existing catalog unreadable, merging into empty catalog")
		existing = nil
	}

	// The document always holds the incoming rows; the diff is only reported.
	existingIDs := make(map[int64]struct{}, len(existing))
	for _, row := range existing {
		existingIDs[row.ID] = struct{}{}
	}
	var updated, inserted int
	for _, row := range rows {
		if _, ok := existingIDs[row.ID]; ok {
			updated++
			delete(existingIDs, row.ID)
		} else {
			inserted++
		}
	}
	if err := s.write(rows); err != nil {
		return errors.WrapResource("merge", "store", s.path, err)
	}
	s.logger.Debug().
		Int("updated", updated).
		Int("inserted", inserted).
		Int("deleted", len(existingIDs)).
		Msg("Merged catalog file")
	s.logReport(report, len(rows))
	return nil
}

// FetchAllOrdered reads the document. A missing or unreadable file yields an empty list.
func (s *Store) FetchAllOrdered(_ context.Context) []catalogs.PersistedProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.read()
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read catalog file")
		return []catalogs.PersistedProduct{}
	}
	catalogs.SortByOrder(rows)
	return rows
}

// Close is a no-op; the document is complete after every write.
func (s *Store) Close() error {
	return nil
}

func (s *Store) read() ([]catalogs.PersistedProduct, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []catalogs.PersistedProduct{}, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", s.path, err)
	}
	if doc.Products == nil {
		doc.Products = []catalogs.PersistedProduct{}
	}
	return doc.Products, nil
}

func (s *Store) write(rows []catalogs.PersistedProduct) error {
	data, err := yaml.Marshal(document{UpdatedAt: time.Now().UTC(), Products: rows})
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", s.path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.WrapIO("rename", s.path, err)
	}
	return nil
}

func (s *Store) logReport(report catalogs.NormalizeReport, stored int) {
	if report.Dropped() > 0 {
		s.logger.Warn().
			Int("missing_id", report.MissingID).
			Ints64("duplicate_ids", report.Duplicates).
			Msg("Dropped records that could not be keyed")
	}
	s.logger.Debug().Int("rows", stored).Str("path", s.path).Msg("Catalog file written")
}
