// Package viewstate drives the product list: loading placeholder, fresh or
// cached products, the visible error message, pagination, and layout style.
//
// The Controller is the only place a network failure turns into degraded
// content. Every change is published as an events.StateChanged snapshot.
package viewstate

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/internal/settings"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Repository is the catalog data source.
type Repository interface {
	FetchProducts(ctx context.Context, limit int) ([]catalogs.Product, error)
	FetchCache(ctx context.Context) []catalogs.Product
}

// Connectivity notifies about reachability transitions.
type Connectivity interface {
	OnLost(fn func())
	OnRestored(fn func())
}

// Publisher receives state change events. Publish is called with the
// controller lock held and must not block.
type Publisher interface {
	Publish(eventType events.EventType, data any)
}

// Controller owns the product list view state.
type Controller struct {
	repo         Repository
	settings     settings.Store
	connectivity Connectivity
	publisher    Publisher
	logger       *zerolog.Logger
	pageStep     int
	onLoaded     []func([]catalogs.Product)

	mu            sync.Mutex
	state         State
	lastIncrement bool

	flight  singleflight.Group
	pending sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the limit of the first fetch.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.state.Limit = n
		}
	}
}

// WithPageStep sets how much each paginated fetch grows the limit.
func WithPageStep(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageStep = n
		}
	}
}

// WithSettings sets the preference store used for the layout style.
func WithSettings(s settings.Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.settings = s
		}
	}
}

// WithConnectivity subscribes the controller to reachability transitions.
func WithConnectivity(conn Connectivity) Option {
	return func(c *Controller) { c.connectivity = conn }
}

// WithPublisher sets where state changes are published.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoadedHook registers fn to run after every successful fetch with the
// products that were published.
func WithLoadedHook(fn func([]catalogs.Product)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.onLoaded = append(c.onLoaded, fn)
		}
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.EventType, any) {}

// New creates a controller in PhaseIdle.
func New(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		settings:  settings.NewMemory(),
		publisher: nopPublisher{},
		logger:    logging.Default(),
		pageStep:  constants.DefaultPageStep,
		state: State{
			Phase:    PhaseIdle,
			Products: []catalogs.Product{},
			Limit:    constants.DefaultPageSize,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Layout = c.CurrentLayoutStyle()
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Start enters PhaseShimmering, subscribes to connectivity loss, and begins
// the initial fetch in the background. Use Wait to block until it finishes.
func (c *Controller) Start(ctx context.Context) {
	c.update(func(s *State) { s.Phase = PhaseShimmering })

	if c.connectivity != nil {
		c.connectivity.OnLost(c.connectionLost)
		c.connectivity.OnRestored(func() {
			c.publisher.Publish(events.ConnectivityRestored, nil)
		})
	}

	c.goFetch(ctx, false)
}

// Wait blocks until background fetches started by the controller finish.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// FetchProducts fetches up to the current limit and publishes the outcome.
// On success with incrementPagination the limit grows for the next call. On
// failure the cached list is published together with a message; when the
// cache is empty the products already shown are kept.
//
// Calls overlapping an in-flight fetch join it and share its result.
func (c *Controller) FetchProducts(ctx context.Context, incrementPagination bool) error {
	c.mu.Lock()
	c.lastIncrement = incrementPagination
	c.mu.Unlock()

	_, err, shared := c.flight.Do(constants.ProductListFetchKey, func() (any, error) {
		return nil, c.fetch(ctx, incrementPagination)
	})
	if shared {
		c.logger.Debug().Str("operation", constants.ProductListFetchKey).Msg("Joined in-flight fetch")
	}
	return err
}

// LoadMore fetches the next page.
func (c *Controller) LoadMore(ctx context.Context) error {
	return c.FetchProducts(ctx, true)
}

// Retry repeats the last fetch with the same pagination flag.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	increment := c.lastIncrement
	c.mu.Unlock()
	return c.FetchProducts(ctx, increment)
}

// Refresh shows the placeholder again and refetches at the current limit.
func (c *Controller) Refresh(ctx context.Context) error {
	c.update(func(s *State) { s.Phase = PhaseShimmering })
	return c.FetchProducts(ctx, false)
}

// DismissError clears the visible message.
func (c *Controller) DismissError() {
	c.update(func(s *State) { s.Message = "" })
}

// CurrentLayoutStyle returns the persisted layout, grid when none is stored.
func (c *Controller) CurrentLayoutStyle() catalogs.Layout {
	raw, ok := c.settings.Get(settings.KeyLayout)
	if !ok {
		return catalogs.LayoutGrid
	}
	layout, err := catalogs.ParseLayout(raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Ignoring stored layout")
		return catalogs.LayoutGrid
	}
	return layout
}

// ChangeLayoutStyle toggles between grid and list and persists the choice.
func (c *Controller) ChangeLayoutStyle() (catalogs.Layout, error) {
	next := c.CurrentLayoutStyle().Toggle()
	if err := c.settings.Set(settings.KeyLayout, next.String()); err != nil {
		return c.CurrentLayoutStyle(), errors.WrapResource("update", "settings", settings.KeyLayout, err)
	}
	c.update(func(s *State) { s.Layout = next })
	return next, nil
}

func (c *Controller) goFetch(ctx context.Context, increment bool) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.FetchProducts(ctx, increment); err != nil {
			c.logger.Debug().Err(err).Msg("Background fetch degraded")
		}
	}()
}

func (c *Controller) fetch(ctx context.Context, increment bool) error {
	ctx = logging.WithOperation(logging.WithLogger(ctx, c.logger), constants.ProductListFetchKey)
	logger := logging.FromContext(ctx)

	var limit int
	c.update(func(s *State) {
		s.Fetching = true
		limit = s.Limit
	})
	c.publisher.Publish(events.FetchStarted, map[string]any{"limit": limit, "increment": increment})

	products, err := c.repo.FetchProducts(ctx, limit)
	if err == nil {
		c.update(func(s *State) {
			s.Phase = PhaseLoaded
			s.Products = products
			s.Message = ""
			s.Fetching = false
			if increment {
				s.Limit += c.pageStep
			}
		})
		c.publisher.Publish(events.FetchCompleted, map[string]any{"limit": limit, "count": len(products)})
		for _, fn := range c.onLoaded {
			fn(products)
		}
		logger.Debug().Int("limit", limit).Int("count", len(products)).Msg("Products loaded")
		return nil
	}

	cached := c.repo.FetchCache(ctx)
	message := errors.UserMessage(err)
	c.update(func(s *State) {
		s.Phase = PhaseDegraded
		if len(cached) > 0 {
			s.Products = cached
		}
		s.Message = message
		s.Fetching = false
	})
	c.publisher.Publish(events.FetchFailed, map[string]any{"limit": limit, "error": err.Error(), "cached": len(cached)})
	logger.Warn().Err(err).Int("limit", limit).Int("cached", len(cached)).Msg("Fetch failed, showing cached products")
	return err
}

func (c *Controller) connectionLost() {
	c.update(func(s *State) {
		s.Message = errors.NewPoorOrNoConnection().UserMessage()
	})
	c.publisher.Publish(events.ConnectivityLost, nil)
}

// update applies fn and publishes the resulting snapshot under the lock, so
// snapshots reach the publisher in the order the state changed. Publishers
// must not block or call back into the controller.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.publisher.Publish(events.StateChanged, c.state.clone())
}
