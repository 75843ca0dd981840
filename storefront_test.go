package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/internal/settings"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/catalogs/memory"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// fakeStoreAPI serves a products endpoint and product images.
type fakeStoreAPI struct {
	mu         sync.Mutex
	status     int
	titles     map[int]string
	limits     []int
	imageCalls int
}

func (s *fakeStoreAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.HasPrefix(r.URL.Path, "/img/") {
		s.imageCalls++
		_, _ = w.Write([]byte("image:" + strings.TrimPrefix(r.URL.Path, "/img/")))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	s.limits = append(s.limits, limit)
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}

	var b strings.Builder
	b.WriteString("[")
	for i := 1; i <= limit; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		title := "Item " + strconv.Itoa(i)
		if t, ok := s.titles[i]; ok {
			title = t
		}
		fmt.Fprintf(&b, `{"id":%d,"title":%q,"price":9.99,"image":"http://%s/img/%d.jpg"}`, i, title, r.Host, i)
	}
	b.WriteString("]")
	_, _ = w.Write([]byte(b.String()))
}

func (s *fakeStoreAPI) setStatus(code int) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

func (s *fakeStoreAPI) setTitle(id int, title string) {
	s.mu.Lock()
	if s.titles == nil {
		s.titles = map[int]string{}
	}
	s.titles[id] = title
	s.mu.Unlock()
}

func (s *fakeStoreAPI) requested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.limits...)
}

func newTestClient(t *testing.T, opts ...Option) (Client, *fakeStoreAPI, catalogs.Store) {
	t.Helper()
	api := &fakeStoreAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	nop := logging.NewNopLogger()
	store := memory.New(memory.WithLogger(nop))
	base := []Option{
		WithBaseURL(srv.URL),
		WithStore(store),
		WithLogger(nop),
	}
	sf, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sf.Close(context.Background()) })
	return sf, api, store
}

func flush(t *testing.T, sf Client) {
	t.Helper()
	require.NoError(t, sf.(*client).repo.Flush(context.Background()))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty base url", WithBaseURL("")},
		{"zero page size", WithPageSize(0)},
		{"negative page step", WithPageStep(-1)},
		{"unknown strategy", WithStrategy("upsert")},
		{"negative image cache", WithImageCache(-1, time.Minute)},
		{"zero persist timeout", WithPersistTimeout(0)},
		{"zero connectivity interval", WithConnectivityMonitor(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestStartLoadsFirstPage(t *testing.T) {
	sf, api, store := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, sf.Start(ctx))
	sf.Wait()

	state := sf.State()
	assert.Equal(t, PhaseLoaded, state.Phase)
	assert.Len(t, state.Products, 7)
	assert.Empty(t, state.Message)
	assert.Equal(t, []int{7}, api.requested())

	flush(t, sf)
	assert.Len(t, store.FetchAllOrdered(ctx), 7)

	err := sf.Start(ctx)
	assert.True(t, errors.IsValidationError(err), "second start is rejected")
}

func TestStartReportsUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	tl := logging.NewTestLogger(t)
	sf, err := New(
		WithBaseURL(baseURL),
		WithConnectivityMonitor(time.Hour),
		WithLogger(tl.Logger),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sf.Close(context.Background()) })

	sub := events.NewChannelSubscriber(64)
	sf.Subscribe(sub)
	require.NoError(t, sf.Start(context.Background()))
	sf.Wait()

	deadline := time.After(2 * time.Second)
	for lost := false; !lost; {
		select {
		case e := <-sub.Events():
			lost = e.Type == events.ConnectivityLost
		case <-deadline:
			t.Fatal("connectivity loss was not reported")
		}
	}

	assert.Equal(t, PhaseDegraded, sf.State().Phase)
	assert.True(t, tl.Contains("Fetch failed, showing cached products"))
}

func TestLoadMoreThenDegrade(t *testing.T) {
	sf, api, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, sf.LoadMore(ctx))
	require.NoError(t, sf.LoadMore(ctx))
	flush(t, sf)
	assert.Equal(t, []int{7, 14}, api.requested())
	assert.Len(t, sf.Cached(ctx), 14)

	api.setStatus(http.StatusNotFound)
	err := sf.Retry(ctx)
	var netErr *errors.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)

	state := sf.State()
	assert.Equal(t, PhaseDegraded, state.Phase)
	assert.Equal(t, "Server returned an invalid response with status code: 404.", state.Message)
	assert.Len(t, state.Products, 14)

	sf.DismissError()
	assert.Empty(t, sf.State().Message)
}

func TestHooksFireBetweenFetches(t *testing.T) {
	sf, api, _ := newTestClient(t, WithPageSize(3))
	ctx := context.Background()

	var mu sync.Mutex
	var added int
	var updated []string
	sf.OnProductAdded(func(catalogs.Product) {
		mu.Lock()
		added++
		mu.Unlock()
	})
	sf.OnProductUpdated(func(_, p catalogs.Product) {
		mu.Lock()
		updated = append(updated, p.TitleValue())
		mu.Unlock()
	})

	require.NoError(t, sf.FetchProducts(ctx, false))
	api.setTitle(2, "Shirt")
	require.NoError(t, sf.FetchProducts(ctx, false))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, added)
	assert.Equal(t, []string{"Shirt"}, updated)
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	sf, _, _ := newTestClient(t)
	ctx := context.Background()

	sub := events.NewChannelSubscriber(64)
	sf.Subscribe(sub)
	require.NoError(t, sf.FetchProducts(ctx, false))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-sub.Events():
			if e.Type == events.FetchCompleted {
				sf.Unsubscribe(sub)
				return
			}
		case <-deadline:
			t.Fatal("no fetch completed event")
		}
	}
}

func TestProductLookupAndImage(t *testing.T) {
	sf, api, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, sf.FetchProducts(ctx, false))

	p, err := sf.Product(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Item 3", p.TitleValue())

	_, err = sf.Product(ctx, 99)
	assert.True(t, errors.IsNotFound(err))

	data, err := sf.ProductImage(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "image:3.jpg", string(data))

	_, err = sf.ProductImage(ctx, 3)
	require.NoError(t, err)
	api.mu.Lock()
	assert.Equal(t, 1, api.imageCalls, "second read is served from the cache")
	api.mu.Unlock()
}

func TestLayoutPersistsThroughSettings(t *testing.T) {
	prefs := settings.NewMemory()
	sf, _, _ := newTestClient(t, WithSettings(prefs))

	assert.Equal(t, catalogs.LayoutGrid, sf.CurrentLayoutStyle())
	layout, err := sf.ChangeLayoutStyle()
	require.NoError(t, err)
	assert.Equal(t, catalogs.LayoutList, layout)

	stored, ok := prefs.Get(settings.KeyLayout)
	require.True(t, ok)
	assert.Equal(t, "list", stored)
}

func TestMergeStrategy(t *testing.T) {
	sf, _, store := newTestClient(t, WithStrategy("merge"))
	ctx := context.Background()

	require.NoError(t, sf.LoadMore(ctx))
	require.NoError(t, sf.FetchProducts(ctx, false))
	flush(t, sf)
	assert.Len(t, store.FetchAllOrdered(ctx), 14)
}

func TestAutoRefresh(t *testing.T) {
	sf, api, _ := newTestClient(t, WithAutoRefreshInterval(20*time.Millisecond))

	require.NoError(t, sf.AutoRefreshOn())
	require.Eventually(t, func() bool {
		return len(api.requested()) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, sf.AutoRefreshOff())

	count := len(api.requested())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, count, len(api.requested()), "no fetches after AutoRefreshOff")
}

func TestAutoRefreshRejectsNonPositiveInterval(t *testing.T) {
	sf, _, _ := newTestClient(t, WithAutoRefreshInterval(0))
	err := sf.AutoRefreshOn()
	assert.True(t, errors.IsValidationError(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	sf, _, _ := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, sf.FetchProducts(ctx, false))
	require.NoError(t, sf.Close(ctx))
	require.NoError(t, sf.Close(ctx))
}
