package catalogs

import "context"

// Reader provides read access to persisted products.
type Reader interface {
	// FetchAllOrdered returns every row in ascending OrderNumber. It returns an
	// empty slice when the store is empty or unreadable; failures are logged.
	FetchAllOrdered(ctx context.Context) []PersistedProduct
}

// Writer reconciles the store with a fresh remote response.
type Writer interface {
	// ReplaceAll atomically swaps the whole content for the normalized records.
	ReplaceAll(ctx context.Context, records []Product) error

	// Merge updates rows in place by ID, inserts new ones, and removes rows
	// whose ID is absent from records. The end state matches ReplaceAll.
	Merge(ctx context.Context, records []Product) error
}

// Store is the complete local catalog store. Implementations serialize
// writes relative to reads, so readers never observe a partial reconciliation.
type Store interface {
	Reader
	Writer

	// Close releases any underlying resources.
	Close() error
}
