// Package storefront provides the main entry point for the storefront client.
// It keeps a product list synchronized with a remote catalog, caches it
// locally for offline use, and exposes presentation state for grid or list
// rendering.
//
// Storefront wraps the lower layers with:
// - Background fetches that degrade to cached products on network failure
// - Event hooks for product changes (added, updated, removed)
// - Optional periodic refresh and connectivity monitoring
// - Flexible configuration through functional options
//
// Example usage:
//
//	sf, err := storefront.New(storefront.WithBaseURL("https://fakestoreapi.com"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sf.Close(context.Background())
//
//	sf.OnProductAdded(func(p catalogs.Product) {
//	    log.Printf("New product: %s", p.TitleValue())
//	})
//
//	if err := sf.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	sf.Wait()
//
//	for _, p := range sf.State().Products {
//	    fmt.Println(p.TitleValue())
//	}
//
//	// Load the next page
//	_ = sf.LoadMore(ctx)
package storefront

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/connectivity"
	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/internal/imagecache"
	"github.com/agentstation/storefront/internal/repository"
	"github.com/agentstation/storefront/internal/settings"
	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/internal/viewstate"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/catalogs/memory"
	"github.com/agentstation/storefront/pkg/errors"
)

// Re-exported types so callers outside this module can use the client API.
type (
	// State is a snapshot of the product list presentation state.
	State = viewstate.State
	// Phase is the coarse presentation state.
	Phase = viewstate.Phase
	// Event is a published state change.
	Event = events.Event
	// EventType identifies an Event.
	EventType = events.EventType
	// Subscriber receives events.
	Subscriber = events.Subscriber
	// SettingsStore persists user preferences.
	SettingsStore = settings.Store
)

// Phases.
const (
	PhaseIdle       = viewstate.PhaseIdle
	PhaseShimmering = viewstate.PhaseShimmering
	PhaseLoaded     = viewstate.PhaseLoaded
	PhaseDegraded   = viewstate.PhaseDegraded
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Products provides read access to products.
type Products interface {
	// State returns the current presentation snapshot
	State() State

	// Cached returns the locally stored products in display order
	Cached(ctx context.Context) []catalogs.Product

	// Product finds a product by ID in the shown list, then in the local store
	Product(ctx context.Context, id int64) (catalogs.Product, error)

	// ProductImage returns the image bytes of a product through the image cache
	ProductImage(ctx context.Context, id int64) ([]byte, error)
}

// Fetcher triggers remote fetches.
type Fetcher interface {
	// FetchProducts fetches at the current limit, growing it when incrementPagination is set
	FetchProducts(ctx context.Context, incrementPagination bool) error

	// LoadMore fetches the next page
	LoadMore(ctx context.Context) error

	// Refresh shows the placeholder and refetches
	Refresh(ctx context.Context) error

	// Retry repeats the last fetch
	Retry(ctx context.Context) error

	// DismissError clears the visible message
	DismissError()
}

// Layouts manages the grid or list preference.
type Layouts interface {
	CurrentLayoutStyle() catalogs.Layout
	ChangeLayoutStyle() (catalogs.Layout, error)
}

// Client is the complete storefront client.
type Client interface {
	Products
	Fetcher
	Layouts
	AutoRefresher
	Hooks

	// Start begins connectivity monitoring and the initial fetch
	Start(ctx context.Context) error

	// Wait blocks until background fetches started by Start finish
	Wait()

	// Subscribe registers a subscriber for state change events
	Subscribe(sub Subscriber)

	// Unsubscribe removes a subscriber
	Unsubscribe(sub Subscriber)

	// Close stops background work, waits for pending store writes, and closes the store
	Close(ctx context.Context) error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	logger  *zerolog.Logger

	store      catalogs.Store
	remote     *transport.Client
	repo       *repository.Repository
	controller *viewstate.Controller
	broker     *events.Broker
	images     *imagecache.Cache
	monitor    *connectivity.Monitor
	hooks      *hooks

	// previous is the last successfully fetched list, for change hooks.
	prevMu   sync.Mutex
	previous []catalogs.Product

	// background lifecycle
	runCtx    context.Context
	runCancel context.CancelFunc
	started   bool
	closeOnce sync.Once

	// auto refresh state
	refreshMu     sync.Mutex
	refreshCancel context.CancelFunc
	refreshDone   chan struct{}
}

// New creates a new Client with the given options. It does not touch the
// network until Start or a fetch is called.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		logger:  o.logger,
		hooks:   newHooks(),
	}

	c.store = o.store
	if c.store == nil {
		c.store = memory.New(memory.WithLogger(o.logger))
	}

	c.remote = transport.New(o.baseURL,
		transport.WithHTTPClient(o.httpClient),
		transport.WithTimeout(o.requestTimeout),
		transport.WithAuthenticator(transport.AuthenticatorFor(o.apiKey)),
		transport.WithLogger(o.logger),
	)

	c.repo = repository.New(c.remote, c.store,
		repository.WithStrategy(o.strategy),
		repository.WithPersistTimeout(o.persistTimeout),
		repository.WithLogger(o.logger),
	)

	c.broker = events.NewBroker(o.logger)
	c.images = imagecache.New(c.remote, o.imageCacheTTL,
		imagecache.WithCapacity(o.imageCacheSize),
		imagecache.WithLogger(o.logger),
	)

	controllerOpts := []viewstate.Option{
		viewstate.WithPageSize(o.pageSize),
		viewstate.WithPageStep(o.pageStep),
		viewstate.WithSettings(o.settings),
		viewstate.WithPublisher(c.broker),
		viewstate.WithLogger(o.logger),
		viewstate.WithLoadedHook(c.productsLoaded),
	}
	if o.connectivityEnabled {
		prober, err := connectivity.ProberForURL(c.remote.BaseURL())
		if err != nil {
			return nil, errors.NewConfigError("connectivity", "cannot probe base URL", err)
		}
		c.monitor = connectivity.New(prober,
			connectivity.WithInterval(o.connectivityInterval),
			connectivity.WithLogger(o.logger),
		)
		controllerOpts = append(controllerOpts, viewstate.WithConnectivity(c.monitor))
	}
	c.controller = viewstate.New(c.repo, controllerOpts...)

	c.runCtx, c.runCancel = context.WithCancel(context.Background())
	go c.broker.Run(c.runCtx)

	return c, nil
}

// Start begins connectivity monitoring, the initial fetch, and auto refresh if enabled.
func (c *client) Start(ctx context.Context) error {
	c.refreshMu.Lock()
	if c.started {
		c.refreshMu.Unlock()
		return errors.NewValidationError("client", "started", "client already started")
	}
	c.started = true
	c.refreshMu.Unlock()

	// The controller registers its connectivity callbacks in Start; the
	// monitor's first probe must not run before that.
	c.controller.Start(ctx)
	if c.monitor != nil {
		go c.monitor.Run(c.runCtx)
	}

	if c.options.autoRefreshEnabled {
		if err := c.AutoRefreshOn(); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until background fetches finish.
func (c *client) Wait() {
	c.controller.Wait()
}

// State returns the current presentation snapshot.
func (c *client) State() State {
	return c.controller.State()
}

// Cached returns the locally stored products.
func (c *client) Cached(ctx context.Context) []catalogs.Product {
	return c.repo.FetchCache(ctx)
}

// Product finds a product by ID in the shown list, then in the local store.
func (c *client) Product(ctx context.Context, id int64) (catalogs.Product, error) {
	for _, p := range c.controller.State().Products {
		if p.ID != nil && *p.ID == id {
			return p, nil
		}
	}
	return c.repo.FindCached(ctx, id)
}

// ProductImage returns a product's image through the cache.
func (c *client) ProductImage(ctx context.Context, id int64) ([]byte, error) {
	p, err := c.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	url := p.ImageValue()
	if url == "" {
		return nil, errors.NewNotFoundError("image for product", p.Key())
	}
	return c.images.Get(ctx, url)
}

// FetchProducts fetches at the current limit.
func (c *client) FetchProducts(ctx context.Context, incrementPagination bool) error {
	return c.controller.FetchProducts(ctx, incrementPagination)
}

// LoadMore fetches the next page.
func (c *client) LoadMore(ctx context.Context) error {
	return c.controller.LoadMore(ctx)
}

// Refresh shows the placeholder and refetches.
func (c *client) Refresh(ctx context.Context) error {
	return c.controller.Refresh(ctx)
}

// Retry repeats the last fetch.
func (c *client) Retry(ctx context.Context) error {
	return c.controller.Retry(ctx)
}

// DismissError clears the visible message.
func (c *client) DismissError() {
	c.controller.DismissError()
}

// CurrentLayoutStyle returns the stored layout.
func (c *client) CurrentLayoutStyle() catalogs.Layout {
	return c.controller.CurrentLayoutStyle()
}

// ChangeLayoutStyle toggles and persists the layout.
func (c *client) ChangeLayoutStyle() (catalogs.Layout, error) {
	return c.controller.ChangeLayoutStyle()
}

// Subscribe registers a subscriber for events.
func (c *client) Subscribe(sub Subscriber) {
	c.broker.Subscribe(sub)
}

// Unsubscribe removes a subscriber.
func (c *client) Unsubscribe(sub Subscriber) {
	c.broker.Unsubscribe(sub)
}

// Close stops background work, flushes pending writes, and closes the store.
func (c *client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.AutoRefreshOff()
		c.controller.Wait()
		c.runCancel()

		if flushErr := c.repo.Flush(ctx); flushErr != nil {
			c.logger.Warn().Err(flushErr).Msg("Pending store writes did not finish")
			err = flushErr
		}
		if closeErr := c.store.Close(); closeErr != nil {
			err = errors.WrapResource("close", "store", "", closeErr)
		}
	})
	return err
}

// productsLoaded diffs a fresh list against the previous one and fires hooks.
func (c *client) productsLoaded(products []catalogs.Product) {
	c.prevMu.Lock()
	previous := c.previous
	c.previous = slices.Clone(products)
	c.prevMu.Unlock()

	for _, change := range c.hooks.trigger(previous, products) {
		c.broker.Publish(change.eventType, change.product)
	}
}
