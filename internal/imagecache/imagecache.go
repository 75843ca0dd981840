// Package imagecache keeps downloaded product images in memory.
// It uses patrickmn/go-cache for TTL expiry and enforces a fixed capacity by
// evicting the oldest entry first.
package imagecache

import (
	"container/list"
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/logging"
)

// Loader downloads an image.
type Loader interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Cache is a bounded, expiring URL to bytes cache.
type Cache struct {
	store    *gocache.Cache
	loader   Loader
	capacity int
	logger   *zerolog.Logger

	// writeMu serializes Set and Clear. mu guards order and index, which
	// hold slots oldest first.
	writeMu sync.Mutex
	mu      sync.Mutex
	order   *list.List
	index   map[string]*list.Element
	gen     uint64

	loads singleflight.Group
}

// entry is the stored value; gen identifies the Set that wrote it.
type entry struct {
	data []byte
	gen  uint64
}

type slot struct {
	key string
	gen uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity bounds the number of cached images. Zero or less means unbounded.
func WithCapacity(n int) Option {
	return func(c *Cache) { c.capacity = n }
}

// WithLogger sets the cache logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache that loads misses through loader. Entries expire after ttl.
func New(loader Loader, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = constants.ImageCacheTTL
	}
	c := &Cache{
		store:    gocache.New(ttl, constants.ImageCacheCleanupInterval),
		loader:   loader,
		capacity: constants.ImageCacheCapacity,
		logger:   logging.Default(),
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store.OnEvicted(func(key string, v any) {
		c.forget(key, v.(entry).gen)
	})
	return c
}

// Get returns the image at url, downloading it on a miss. Concurrent misses
// for the same url share one download.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, error) {
	if data, ok := c.Peek(url); ok {
		return data, nil
	}

	v, err, _ := c.loads.Do(url, func() (any, error) {
		if data, ok := c.Peek(url); ok {
			return data, nil
		}
		data, err := c.loader.FetchBytes(ctx, url)
		if err != nil {
			return nil, err
		}
		c.Set(url, data)
		return data, nil
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("url", url).Msg("Image load failed")
		return nil, err
	}
	return v.([]byte), nil
}

// Peek returns a cached image without loading.
func (c *Cache) Peek(url string) ([]byte, bool) {
	v, ok := c.store.Get(url)
	if !ok {
		return nil, false
	}
	return v.(entry).data, true
}

// Set stores an image, evicting the oldest entries beyond capacity.
func (c *Cache) Set(url string, data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if el, ok := c.index[url]; ok {
		el.Value.(*slot).gen = gen
		c.order.MoveToBack(el)
	} else {
		c.index[url] = c.order.PushBack(&slot{key: url, gen: gen})
	}
	var evict []string
	for c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Front()
		key := oldest.Value.(*slot).key
		c.order.Remove(oldest)
		delete(c.index, key)
		evict = append(evict, key)
	}
	c.mu.Unlock()

	// go-cache calls OnEvicted from Delete, which takes mu.
	c.store.SetDefault(url, entry{data: data, gen: gen})
	for _, key := range evict {
		c.store.Delete(key)
		c.logger.Trace().Str("url", key).Msg("Evicted image")
	}
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Clear removes every cached image.
func (c *Cache) Clear() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.store.Flush()
	c.mu.Lock()
	c.order.Init()
	c.index = make(map[string]*list.Element)
	c.mu.Unlock()
}

// forget drops key from the order unless a newer Set has rewritten it since
// the evicted value was stored.
func (c *Cache) forget(key string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok && el.Value.(*slot).gen == gen {
		c.order.Remove(el)
		delete(c.index, key)
	}
}
