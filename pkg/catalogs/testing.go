package catalogs

import (
	"fmt"
	"testing"

	"github.com/agentstation/storefront/internal/utils/ptr"
)

// TestProduct creates a fully populated product with the given ID.
// The t.Helper() call ensures stack traces point to the test, not this function.
func TestProduct(t testing.TB, id int64) Product {
	t.Helper()
	p := NewProduct()
	p.ID = ptr.To(id)
	p.Title = ptr.To(fmt.Sprintf("Product %d", id))
	p.Price = ptr.To(float64(id) + 0.99)
	p.Description = ptr.To(fmt.Sprintf("Description of product %d", id))
	p.Category = ptr.To("electronics")
	p.Image = ptr.To(fmt.Sprintf("https://example.test/img/%d.jpg", id))
	p.Rating = &Rating{Rate: ptr.To(4.5), Count: ptr.To(int64(100 + id))}
	return p
}

// TestProducts creates one product per ID, in the given order.
func TestProducts(t testing.TB, ids ...int64) []Product {
	t.Helper()
	products := make([]Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, TestProduct(t, id))
	}
	return products
}

// RowIDs returns the IDs of rows in their current order.
func RowIDs(rows []PersistedProduct) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}
