package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/internal/utils/ptr"
	"github.com/agentstation/storefront/pkg/catalogs"
)

func TestHooksTrigger(t *testing.T) {
	h := newHooks()

	var added, removed []int64
	var updated [][2]string
	h.onProductAdded = append(h.onProductAdded, func(p catalogs.Product) { added = append(added, p.IDValue()) })
	h.onProductRemoved = append(h.onProductRemoved, func(p catalogs.Product) { removed = append(removed, p.IDValue()) })
	h.onProductUpdated = append(h.onProductUpdated, func(old, new catalogs.Product) {
		updated = append(updated, [2]string{old.TitleValue(), new.TitleValue()})
	})

	oldList := catalogs.TestProducts(t, 1, 2, 3)
	newList := catalogs.TestProducts(t, 2, 3, 4)
	newList[0].Title = ptr.To("Shirt")

	changes := h.trigger(oldList, newList)

	assert.Equal(t, []int64{4}, added)
	assert.Equal(t, []int64{1}, removed)
	assert.Equal(t, [][2]string{{"Product 2", "Shirt"}}, updated)

	require.Len(t, changes, 3)
	assert.Equal(t, events.ProductUpdated, changes[0].eventType)
	assert.Equal(t, int64(2), changes[0].product.IDValue())
	assert.Equal(t, events.ProductAdded, changes[1].eventType)
	assert.Equal(t, events.ProductRemoved, changes[2].eventType)
}

func TestHooksTriggerFirstList(t *testing.T) {
	h := newHooks()
	changes := h.trigger(nil, catalogs.TestProducts(t, 1, 2))
	require.Len(t, changes, 2)
	for _, c := range changes {
		assert.Equal(t, events.ProductAdded, c.eventType)
	}
}

func TestHooksTriggerUnchanged(t *testing.T) {
	h := newHooks()
	list := catalogs.TestProducts(t, 1, 2)
	assert.Empty(t, h.trigger(list, catalogs.TestProducts(t, 1, 2)))
}

func TestHooksTriggerProductsWithoutID(t *testing.T) {
	h := newHooks()
	anon := catalogs.NewProduct()
	anon.Title = ptr.To("No ID")

	changes := h.trigger([]catalogs.Product{anon}, []catalogs.Product{anon})
	assert.Empty(t, changes, "same instance keeps its key")

	other := catalogs.NewProduct()
	other.Title = ptr.To("No ID")
	changes = h.trigger([]catalogs.Product{anon}, []catalogs.Product{other})
	require.Len(t, changes, 2)
	assert.Equal(t, events.ProductAdded, changes[0].eventType)
	assert.Equal(t, events.ProductRemoved, changes[1].eventType)
}
