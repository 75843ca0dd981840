// Package constants provides shared constants used throughout the storefront codebase.
// This includes timeouts, pagination, file permissions, and cache settings
// that should be consistent across the application.
package constants

import "time"

// Remote catalog constants
const (
	// DefaultBaseURL is the origin of the remote catalog API
	DefaultBaseURL = "https://fakestoreapi.com"

	// ProductsPath is the product list endpoint
	ProductsPath = "/products"

	// ProductListFetchKey identifies the single in-flight product list fetch
	ProductListFetchKey = "product-list-fetch"
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultRequestTimeout bounds one remote call when the caller sets no deadline
	DefaultRequestTimeout = 30 * time.Second

	// DefaultPersistTimeout bounds one detached store write
	DefaultPersistTimeout = 15 * time.Second

	// DefaultConnectivityInterval is how often the connectivity probe runs
	DefaultConnectivityInterval = 5 * time.Second

	// DialTimeout is the timeout for a single connectivity probe
	DialTimeout = 3 * time.Second

	// DefaultRefreshInterval is the default period for automatic refreshes
	DefaultRefreshInterval = 5 * time.Minute

	// CommandTimeout is the default timeout for one-shot CLI commands
	CommandTimeout = 2 * time.Minute

	// ShutdownTimeout bounds pending writes when the process exits
	ShutdownTimeout = 10 * time.Second
)

// Pagination constants
const (
	// DefaultPageSize is the number of products requested by the first fetch
	DefaultPageSize = 7

	// DefaultPageStep is how much the limit grows after each successful paginated fetch
	DefaultPageStep = 7
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Cache constants
const (
	// ImageCacheTTL is the default time-to-live for cached images
	ImageCacheTTL = 30 * time.Minute

	// ImageCacheCleanupInterval is how often expired images are purged
	ImageCacheCleanupInterval = 5 * time.Minute

	// ImageCacheCapacity is the maximum number of images kept in memory
	ImageCacheCapacity = 100

	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 256
)

// Path constants
const (
	// DefaultDataDir is the default directory for the local store and settings
	DefaultDataDir = "~/.storefront"

	// SettingsFile is the settings file name inside the data directory
	SettingsFile = "settings.yaml"

	// CatalogFile is the files-backend document name inside the data directory
	CatalogFile = "catalog.yaml"

	// LevelDBDir is the leveldb-backend directory name inside the data directory
	LevelDBDir = "catalog.db"
)
