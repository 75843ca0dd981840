package storefront

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/repository"
	"github.com/agentstation/storefront/internal/settings"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Option is a function that configures a storefront client
type Option func(*options) error

// options holds the client configuration
type options struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	persistTimeout time.Duration

	store    catalogs.Store
	settings settings.Store
	strategy repository.Strategy

	pageSize int
	pageStep int

	imageCacheSize int
	imageCacheTTL  time.Duration

	connectivityEnabled  bool
	connectivityInterval time.Duration

	autoRefreshEnabled  bool
	autoRefreshInterval time.Duration

	logger *zerolog.Logger
}

// defaults returns the default configuration
func defaults() *options {
	return &options{
		baseURL:              constants.DefaultBaseURL,
		requestTimeout:       constants.DefaultRequestTimeout,
		persistTimeout:       constants.DefaultPersistTimeout,
		settings:             settings.NewMemory(),
		strategy:             repository.StrategyReplace,
		pageSize:             constants.DefaultPageSize,
		pageStep:             constants.DefaultPageStep,
		imageCacheSize:       constants.ImageCacheCapacity,
		imageCacheTTL:        constants.ImageCacheTTL,
		connectivityEnabled:  false,
		connectivityInterval: constants.DefaultConnectivityInterval,
		autoRefreshEnabled:   false,
		autoRefreshInterval:  constants.DefaultRefreshInterval,
		logger:               logging.Default(),
	}
}

// apply applies the given options and validates the result
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithBaseURL sets the remote catalog origin
func WithBaseURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return errors.NewValidationError("base_url", url, "must not be empty")
		}
		o.baseURL = url
		return nil
	}
}

// WithAPIKey sends a bearer token with every remote call
func WithAPIKey(key string) Option {
	return func(o *options) error {
		o.apiKey = key
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for remote calls
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

// WithRequestTimeout bounds each remote call that has no caller deadline
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("request_timeout", d, "must not be negative")
		}
		o.requestTimeout = d
		return nil
	}
}

// WithPersistTimeout bounds each background store write
func WithPersistTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("persist_timeout", d, "must be positive")
		}
		o.persistTimeout = d
		return nil
	}
}

// WithStore sets the local catalog store. The client closes it on Close.
func WithStore(store catalogs.Store) Option {
	return func(o *options) error {
		o.store = store
		return nil
	}
}

// WithSettings sets the preference store
func WithSettings(s SettingsStore) Option {
	return func(o *options) error {
		if s == nil {
			return errors.NewValidationError("settings", s, "must not be nil")
		}
		o.settings = s
		return nil
	}
}

// WithStrategy selects how fresh responses are written ("replace" or "merge")
func WithStrategy(name string) Option {
	return func(o *options) error {
		s, err := repository.ParseStrategy(name)
		if err != nil {
			return err
		}
		o.strategy = s
		return nil
	}
}

// WithPageSize sets the limit of the first fetch
func WithPageSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.NewValidationError("page_size", n, "must be positive")
		}
		o.pageSize = n
		return nil
	}
}

// WithPageStep sets how much each paginated fetch grows the limit
func WithPageStep(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.NewValidationError("page_step", n, "must be positive")
		}
		o.pageStep = n
		return nil
	}
}

// WithImageCache sets the image cache capacity and expiry. A capacity of
// zero keeps every image until it expires.
func WithImageCache(capacity int, ttl time.Duration) Option {
	return func(o *options) error {
		if capacity < 0 {
			return errors.NewValidationError("image_cache_size", capacity, "must not be negative")
		}
		o.imageCacheSize = capacity
		o.imageCacheTTL = ttl
		return nil
	}
}

// WithConnectivityMonitor enables probing the catalog host every interval
func WithConnectivityMonitor(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return errors.NewValidationError("connectivity_interval", interval, "must be positive")
		}
		o.connectivityEnabled = true
		o.connectivityInterval = interval
		return nil
	}
}

// WithAutoRefresh configures whether Start enables periodic refresh
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) error {
		o.autoRefreshEnabled = enabled
		return nil
	}
}

// WithAutoRefreshInterval configures how often to refresh automatically
func WithAutoRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoRefreshInterval = interval
		return nil
	}
}

// WithLogger sets the logger shared by every component
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
