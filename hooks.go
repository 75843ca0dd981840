package storefront

import (
	"sync"

	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/pkg/catalogs"
)

// Hook function types for product events
type (
	// ProductAddedHook is called when a product appears in a fetched list
	ProductAddedHook func(product catalogs.Product)

	// ProductUpdatedHook is called when a product's content changed between fetches
	ProductUpdatedHook func(old, new catalogs.Product)

	// ProductRemovedHook is called when a product is missing from a fetched list
	ProductRemovedHook func(product catalogs.Product)
)

// Hooks registers callbacks for product changes between successful fetches.
type Hooks interface {
	OnProductAdded(ProductAddedHook)
	OnProductUpdated(ProductUpdatedHook)
	OnProductRemoved(ProductRemovedHook)
}

// hooks manages event callbacks for product changes
type hooks struct {
	mu               sync.RWMutex
	onProductAdded   []ProductAddedHook
	onProductUpdated []ProductUpdatedHook
	onProductRemoved []ProductRemovedHook
}

// change is one detected difference, for publishing.
type change struct {
	eventType events.EventType
	product   catalogs.Product
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnProductAdded registers a callback for when products are added
func (c *client) OnProductAdded(fn ProductAddedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onProductAdded = append(c.hooks.onProductAdded, fn)
}

// OnProductUpdated registers a callback for when products are updated
func (c *client) OnProductUpdated(fn ProductUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onProductUpdated = append(c.hooks.onProductUpdated, fn)
}

// OnProductRemoved registers a callback for when products are removed
func (c *client) OnProductRemoved(fn ProductRemovedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onProductRemoved = append(c.hooks.onProductRemoved, fn)
}

// trigger compares two lists by product key, fires hooks, and returns the changes.
// Products without an ID have a per-instance key, so they always show up as
// removed from the old list and added in the new one.
func (h *hooks) trigger(oldList, newList []catalogs.Product) []change {
	h.mu.RLock()
	defer h.mu.RUnlock()

	oldByKey := make(map[string]catalogs.Product, len(oldList))
	for i := range oldList {
		oldByKey[oldList[i].Key()] = oldList[i]
	}
	newKeys := make(map[string]struct{}, len(newList))

	var changes []change
	for i := range newList {
		product := newList[i]
		key := product.Key()
		newKeys[key] = struct{}{}

		old, exists := oldByKey[key]
		switch {
		case !exists:
			for _, hook := range h.onProductAdded {
				hook(product)
			}
			changes = append(changes, change{events.ProductAdded, product})
		case !old.Equal(product):
			for _, hook := range h.onProductUpdated {
				hook(old, product)
			}
			changes = append(changes, change{events.ProductUpdated, product})
		}
	}

	for i := range oldList {
		if _, exists := newKeys[oldList[i].Key()]; !exists {
			for _, hook := range h.onProductRemoved {
				hook(oldList[i])
			}
			changes = append(changes, change{events.ProductRemoved, oldList[i]})
		}
	}
	return changes
}
