// Package app provides the application context and dependency management
// for the storefront CLI. It centralizes configuration, logging, and the
// lifecycle of the shared storefront client.
package app

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront"
	"github.com/agentstation/storefront/internal/settings"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/catalogs/files"
	"github.com/agentstation/storefront/pkg/catalogs/leveldb"
	"github.com/agentstation/storefront/pkg/catalogs/memory"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// App represents the storefront application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Storefront client (lazy-initialized, singleton)
	mu     sync.RWMutex
	client storefront.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Storefront returns the client, creating it lazily if needed.
func (a *App) Storefront() (storefront.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	opts, err := a.buildOptions(store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c, err := storefront.New(opts...)
	if err != nil {
		_ = store.Close()
		return nil, errors.WrapResource("create", "storefront", "", err)
	}

	a.client = c
	return c, nil
}

// Shutdown closes the client, waiting for pending store writes.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client = nil
	a.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close(ctx)
}

// buildOptions constructs client options from the app configuration.
func (a *App) buildOptions(store catalogs.Store) ([]storefront.Option, error) {
	opts := []storefront.Option{
		storefront.WithLogger(a.logger),
		storefront.WithBaseURL(a.config.BaseURL),
		storefront.WithRequestTimeout(a.config.RequestTimeout),
		storefront.WithPersistTimeout(a.config.PersistTimeout),
		storefront.WithStrategy(a.config.ReconcileStrategy),
		storefront.WithStore(store),
		storefront.WithPageSize(a.config.PageSize),
		storefront.WithPageStep(a.config.PageStep),
		storefront.WithImageCache(a.config.ImageCacheSize, a.config.ImageCacheTTL),
	}

	if a.config.APIKey != "" {
		opts = append(opts, storefront.WithAPIKey(a.config.APIKey))
	}

	if a.config.ConnectivityInterval > 0 {
		opts = append(opts, storefront.WithConnectivityMonitor(a.config.ConnectivityInterval))
	}

	if a.config.RefreshInterval > 0 {
		opts = append(opts,
			storefront.WithAutoRefresh(true),
			storefront.WithAutoRefreshInterval(a.config.RefreshInterval),
		)
	}

	// Memory mode keeps preferences in memory too
	if a.config.Store != StoreMemory {
		prefs, err := settings.NewFile(filepath.Join(a.config.DataDir, constants.SettingsFile))
		if err != nil {
			return nil, err
		}
		opts = append(opts, storefront.WithSettings(prefs))
	}

	return opts, nil
}

// openStore opens the configured catalog store backend.
func (a *App) openStore() (catalogs.Store, error) {
	switch a.config.Store {
	case StoreMemory:
		return memory.New(memory.WithLogger(a.logger)), nil
	case StoreLevelDB:
		store, err := leveldb.Open(filepath.Join(a.config.DataDir, constants.LevelDBDir), leveldb.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := files.New(filepath.Join(a.config.DataDir, constants.CatalogFile), files.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStorefront sets a custom client (useful for testing).
func WithStorefront(c storefront.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
