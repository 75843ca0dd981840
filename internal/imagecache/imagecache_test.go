package imagecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/logging"
)

type fakeLoader struct {
	calls atomic.Int32
	delay time.Duration
	fail  bool
}

func (f *fakeLoader) FetchBytes(_ context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return nil, errors.New("unreachable")
	}
	return []byte("img:" + url), nil
}

func newCache(loader Loader, capacity int) *Cache {
	return New(loader, time.Minute, WithCapacity(capacity), WithLogger(logging.NewNopLogger()))
}

func TestGetLoadsOnceThenHits(t *testing.T) {
	loader := &fakeLoader{}
	c := newCache(loader, 10)

	data, err := c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("img:a"), data)

	data, err = c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("img:a"), data)
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestGetSharesConcurrentLoads(t *testing.T) {
	loader := &fakeLoader{delay: 50 * time.Millisecond}
	c := newCache(loader, 10)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestGetDoesNotCacheFailures(t *testing.T) {
	loader := &fakeLoader{fail: true}
	c := newCache(loader, 10)

	_, err := c.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())

	_, err = c.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	c := newCache(&fakeLoader{}, 2)
	c.Set("one", []byte("1"))
	c.Set("two", []byte("2"))
	c.Set("three", []byte("3"))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("one")
	assert.False(t, ok)
	_, ok = c.Peek("two")
	assert.True(t, ok)
	_, ok = c.Peek("three")
	assert.True(t, ok)
}

func TestRewriteRefreshesPosition(t *testing.T) {
	c := newCache(&fakeLoader{}, 2)
	c.Set("one", []byte("1"))
	c.Set("two", []byte("2"))
	c.Set("one", []byte("1b"))
	c.Set("three", []byte("3"))

	_, ok := c.Peek("two")
	assert.False(t, ok)
	data, ok := c.Peek("one")
	assert.True(t, ok)
	assert.Equal(t, []byte("1b"), data)
}

func TestUnboundedCapacity(t *testing.T) {
	c := newCache(&fakeLoader{}, 0)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, []byte(k))
	}
	assert.Equal(t, 4, c.Len())
}

func TestTTLExpiry(t *testing.T) {
	c := New(&fakeLoader{}, 20*time.Millisecond, WithLogger(logging.NewNopLogger()))
	c.Set("a", []byte("a"))
	require.Eventually(t, func() bool {
		_, ok := c.Peek("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestClear(t *testing.T) {
	c := newCache(&fakeLoader{}, 5)
	c.Set("a", []byte("a"))
	c.Clear()
	assert.Equal(t, 0, c.Len())
	c.Set("b", []byte("b"))
	assert.Equal(t, 1, c.Len())
}

func TestStaleEvictionKeepsRewrittenEntry(t *testing.T) {
	c := newCache(&fakeLoader{}, 2)
	c.Set("a", []byte("a1"))
	c.Set("a", []byte("a2"))

	// an eviction notice for the first write arrives after the rewrite
	c.forget("a", 1)

	c.Set("b", []byte("b"))
	c.Set("c", []byte("c"))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("a")
	assert.False(t, ok, "a is still tracked and evicted first")
}

func TestConcurrentSetsRespectCapacity(t *testing.T) {
	c := newCache(&fakeLoader{}, 3)
	keys := []string{"a", "b", "c", "d", "e", "f"}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				key := keys[(i+j)%len(keys)]
				c.Set(key, []byte(key))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, c.Len())
	c.mu.Lock()
	tracked := c.order.Len()
	c.mu.Unlock()
	assert.Equal(t, 3, tracked)
}
