package viewstate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/internal/repository"
	"github.com/agentstation/storefront/internal/settings"
	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/catalogs/memory"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// fakeRepo serves scripted results and records requested limits.
type fakeRepo struct {
	mu      sync.Mutex
	limits  []int
	err     error
	cache   []catalogs.Product
	gate    chan struct{}
	calls   atomic.Int32
	entered chan struct{}
}

func (r *fakeRepo) FetchProducts(_ context.Context, limit int) ([]catalogs.Product, error) {
	r.calls.Add(1)
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits = append(r.limits, limit)
	if r.err != nil {
		return nil, r.err
	}
	ids := make([]int64, 0, limit)
	for i := 1; i <= limit; i++ {
		ids = append(ids, int64(i))
	}
	return testProducts(ids...), nil
}

func (r *fakeRepo) FetchCache(context.Context) []catalogs.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache
}

func (r *fakeRepo) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *fakeRepo) requested() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.limits...)
}

func testProducts(ids ...int64) []catalogs.Product {
	out := make([]catalogs.Product, 0, len(ids))
	for _, id := range ids {
		p := catalogs.NewProduct()
		p.ID = &id
		title := fmt.Sprintf("Product %d", id)
		p.Title = &title
		out = append(out, p)
	}
	return out
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(t events.EventType, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events.Event{Type: t, Data: data})
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, e := range r.events {
		if e.Type == events.StateChanged {
			out = append(out, e.Data.(State))
		}
	}
	return out
}

func (r *recorder) has(t events.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// fakeConnectivity lets tests trigger transitions.
type fakeConnectivity struct {
	lost, restored []func()
}

func (f *fakeConnectivity) OnLost(fn func())     { f.lost = append(f.lost, fn) }
func (f *fakeConnectivity) OnRestored(fn func()) { f.restored = append(f.restored, fn) }

func newController(repo Repository, opts ...Option) (*Controller, *recorder) {
	rec := &recorder{}
	opts = append([]Option{WithPublisher(rec), WithLogger(logging.NewNopLogger())}, opts...)
	return New(repo, opts...), rec
}

func TestStartShimmersThenLoads(t *testing.T) {
	repo := &fakeRepo{}
	c, rec := newController(repo)
	assert.Equal(t, PhaseIdle, c.State().Phase)

	c.Start(context.Background())
	c.Wait()

	states := rec.states()
	require.NotEmpty(t, states)
	assert.Equal(t, PhaseShimmering, states[0].Phase)

	final := c.State()
	assert.Equal(t, PhaseLoaded, final.Phase)
	assert.Len(t, final.Products, 7)
	assert.Equal(t, 7, final.Limit, "initial fetch does not paginate")
	assert.False(t, final.Fetching)
	assert.Equal(t, []int{7}, repo.requested())
	assert.True(t, rec.has(events.FetchCompleted))
}

func TestPaginationGrowsLimitOnSuccess(t *testing.T) {
	repo := &fakeRepo{}
	c, _ := newController(repo)
	ctx := context.Background()

	require.NoError(t, c.FetchProducts(ctx, true))
	require.NoError(t, c.FetchProducts(ctx, true))
	require.NoError(t, c.FetchProducts(ctx, false))

	assert.Equal(t, []int{7, 14, 21}, repo.requested())
	assert.Equal(t, 21, c.State().Limit)
	assert.Len(t, c.State().Products, 21)
}

func TestPaginationDoesNotGrowOnFailure(t *testing.T) {
	repo := &fakeRepo{err: errors.NewInvalidServer("/products", 500)}
	c, _ := newController(repo)

	assert.Error(t, c.FetchProducts(context.Background(), true))
	assert.Equal(t, 7, c.State().Limit)
}

func TestFailurePublishesCacheAndMessage(t *testing.T) {
	repo := &fakeRepo{
		err:   errors.NewInvalidServer("/products", 404),
		cache: testProducts(3, 1),
	}
	c, rec := newController(repo)

	err := c.FetchProducts(context.Background(), false)
	assert.ErrorIs(t, err, errors.ErrInvalidServer)

	state := c.State()
	assert.Equal(t, PhaseDegraded, state.Phase)
	assert.Equal(t, "Server returned an invalid response with status code: 404.", state.Message)
	require.Len(t, state.Products, 2)
	assert.Equal(t, int64(3), state.Products[0].IDValue())

	// cached list and message arrive in the same snapshot
	states := rec.states()
	last := states[len(states)-1]
	assert.Len(t, last.Products, 2)
	assert.NotEmpty(t, last.Message)
	assert.True(t, rec.has(events.FetchFailed))
}

func TestFailureWithEmptyCacheKeepsShownProducts(t *testing.T) {
	repo := &fakeRepo{}
	c, _ := newController(repo)
	ctx := context.Background()
	require.NoError(t, c.FetchProducts(ctx, false))
	require.Len(t, c.State().Products, 7)

	repo.setErr(errors.NewUnknown("/products", context.DeadlineExceeded))
	require.Error(t, c.FetchProducts(ctx, false))

	state := c.State()
	assert.Equal(t, PhaseDegraded, state.Phase)
	assert.Len(t, state.Products, 7)
	assert.Equal(t, "Something wrong happened, Retry again.", state.Message)
}

func TestSuccessClearsMessage(t *testing.T) {
	repo := &fakeRepo{err: errors.NewDecodingError("/products", errors.New("bad"))}
	c, _ := newController(repo)
	ctx := context.Background()

	require.Error(t, c.FetchProducts(ctx, false))
	assert.NotEmpty(t, c.State().Message)

	repo.setErr(nil)
	require.NoError(t, c.Retry(ctx))
	assert.Empty(t, c.State().Message)
	assert.Equal(t, PhaseLoaded, c.State().Phase)
}

func TestRetryRepeatsLastIncrement(t *testing.T) {
	repo := &fakeRepo{err: errors.NewInvalidServer("/products", 503)}
	c, _ := newController(repo)
	ctx := context.Background()

	require.Error(t, c.LoadMore(ctx))
	repo.setErr(nil)
	require.NoError(t, c.Retry(ctx))

	assert.Equal(t, []int{7, 7}, repo.requested())
	assert.Equal(t, 14, c.State().Limit)
}

func TestRefreshReturnsToShimmering(t *testing.T) {
	repo := &fakeRepo{}
	c, rec := newController(repo)
	ctx := context.Background()
	require.NoError(t, c.FetchProducts(ctx, false))

	require.NoError(t, c.Refresh(ctx))

	var phases []Phase
	for _, s := range rec.states() {
		phases = append(phases, s.Phase)
	}
	assert.Contains(t, phases, PhaseShimmering)
	assert.Equal(t, PhaseLoaded, c.State().Phase)
}

func TestOverlappingFetchesJoin(t *testing.T) {
	repo := &fakeRepo{gate: make(chan struct{}), entered: make(chan struct{}, 4)}
	c, _ := newController(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.FetchProducts(ctx, true))
	}()
	<-repo.entered

	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.FetchProducts(ctx, true))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	assert.Equal(t, int32(1), repo.calls.Load())
	assert.Equal(t, 14, c.State().Limit, "joined calls share one increment")
}

func TestConnectivityLossSetsMessage(t *testing.T) {
	repo := &fakeRepo{}
	conn := &fakeConnectivity{}
	c, rec := newController(repo, WithConnectivity(conn))
	c.Start(context.Background())
	c.Wait()

	require.Len(t, conn.lost, 1)
	conn.lost[0]()

	state := c.State()
	assert.Equal(t, "Poor or no connection. Showing saved products.", state.Message)
	assert.Equal(t, PhaseLoaded, state.Phase, "loss only sets the message")
	assert.Len(t, state.Products, 7)
	assert.True(t, rec.has(events.ConnectivityLost))

	conn.restored[0]()
	assert.True(t, rec.has(events.ConnectivityRestored))

	c.DismissError()
	assert.Empty(t, c.State().Message)
}

func TestLayoutStyle(t *testing.T) {
	store := settings.NewMemory()
	c, _ := newController(&fakeRepo{}, WithSettings(store))

	assert.Equal(t, catalogs.LayoutGrid, c.CurrentLayoutStyle())

	layout, err := c.ChangeLayoutStyle()
	require.NoError(t, err)
	assert.Equal(t, catalogs.LayoutList, layout)
	assert.Equal(t, catalogs.LayoutList, c.State().Layout)

	stored, ok := store.Get(settings.KeyLayout)
	require.True(t, ok)
	assert.Equal(t, "list", stored)

	reopened, _ := newController(&fakeRepo{}, WithSettings(store))
	assert.Equal(t, catalogs.LayoutList, reopened.CurrentLayoutStyle())
	assert.Equal(t, catalogs.LayoutList, reopened.State().Layout)

	layout, err = c.ChangeLayoutStyle()
	require.NoError(t, err)
	assert.Equal(t, catalogs.LayoutGrid, layout)
}

func TestLayoutIgnoresUnknownStoredValue(t *testing.T) {
	store := settings.NewMemory()
	require.NoError(t, store.Set(settings.KeyLayout, "carousel"))
	c, _ := newController(&fakeRepo{}, WithSettings(store))
	assert.Equal(t, catalogs.LayoutGrid, c.CurrentLayoutStyle())
}

func TestLoadedHook(t *testing.T) {
	var got []catalogs.Product
	c, _ := newController(&fakeRepo{}, WithLoadedHook(func(p []catalogs.Product) { got = p }))
	require.NoError(t, c.FetchProducts(context.Background(), false))
	assert.Len(t, got, 7)
}

func TestCustomPageSizeAndStep(t *testing.T) {
	repo := &fakeRepo{}
	c, _ := newController(repo, WithPageSize(3), WithPageStep(2))
	ctx := context.Background()
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, []int{3, 5}, repo.requested())
}

// End to end through the real client, repository, and store.

type apiServer struct {
	mu     sync.Mutex
	status int
	limits []int
}

func (s *apiServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	s.mu.Lock()
	s.limits = append(s.limits, limit)
	status := s.status
	s.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	_, _ = w.Write([]byte("["))
	for i := 1; i <= limit; i++ {
		if i > 1 {
			_, _ = w.Write([]byte(","))
		}
		_, _ = fmt.Fprintf(w, `{"id":%d,"title":"Item %d","price":1.5,"rating":{"rate":4,"count":%d}}`, i, i, i)
	}
	_, _ = w.Write([]byte("]"))
}

func (s *apiServer) requested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.limits...)
}

func (s *apiServer) setStatus(code int) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

func TestEndToEnd(t *testing.T) {
	api := &apiServer{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	nop := logging.NewNopLogger()
	store := memory.New(memory.WithLogger(nop))
	repo := repository.New(transport.New(srv.URL, transport.WithLogger(nop)), store, repository.WithLogger(nop))
	c, _ := newController(repo)
	ctx := context.Background()

	t.Run("paginated fetches replace the store", func(t *testing.T) {
		require.NoError(t, c.FetchProducts(ctx, true))
		require.NoError(t, repo.Flush(ctx))
		assert.Len(t, store.FetchAllOrdered(ctx), 7)

		require.NoError(t, c.FetchProducts(ctx, true))
		require.NoError(t, repo.Flush(ctx))

		rows := store.FetchAllOrdered(ctx)
		require.Len(t, rows, 14)
		assert.Equal(t, int64(0), rows[0].OrderNumber)
		assert.Equal(t, int64(13), rows[13].OrderNumber)
		assert.Equal(t, []int{7, 14}, api.requested())
	})

	t.Run("404 degrades to cache with a message", func(t *testing.T) {
		api.setStatus(http.StatusNotFound)
		err := c.FetchProducts(ctx, false)

		var netErr *errors.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, 404, netErr.StatusCode)

		state := c.State()
		assert.Equal(t, PhaseDegraded, state.Phase)
		assert.NotEmpty(t, state.Message)
		assert.Len(t, state.Products, 14)
		assert.Equal(t, 4.0, state.Products[0].Rating.RateValue())
	})
}

func TestFetchLogsThroughConfiguredLogger(t *testing.T) {
	fallback := logging.CaptureLoggingForTest(t)
	tl := logging.NewTestLogger(t)

	repo := &fakeRepo{err: errors.NewInvalidServer("/products", 500)}
	c := New(repo, WithLogger(tl.Logger))
	require.Error(t, c.FetchProducts(context.Background(), false))

	assert.True(t, tl.Contains("Fetch failed, showing cached products"))
	assert.True(t, tl.Contains(`"operation":"product-list-fetch"`))
	assert.False(t, fallback.Contains("Fetch failed"))
}

func TestSnapshotsPublishInStateOrder(t *testing.T) {
	c, rec := newController(&fakeRepo{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.update(func(s *State) { s.Limit++ })
		}()
	}
	wg.Wait()

	states := rec.states()
	require.Len(t, states, 50)
	for i := 1; i < len(states); i++ {
		assert.Equal(t, states[i-1].Limit+1, states[i].Limit)
	}
}
