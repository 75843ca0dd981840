package catalogs

import (
	"cmp"
	"slices"
)

// PersistedProduct is the normalized row kept by a Store. OrderNumber is the
// zero-based position of the product in the response that last wrote it.
type PersistedProduct struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Category    string  `json:"category" yaml:"category"`
	ImageURL    string  `json:"image_url" yaml:"image_url"`
	Price       float64 `json:"price" yaml:"price"`
	Rate        float64 `json:"rate" yaml:"rate"`
	RateCount   int64   `json:"rate_count" yaml:"rate_count"`
	OrderNumber int64   `json:"order_number" yaml:"order_number"`
}

// SortByOrder orders rows by ascending OrderNumber in place.
func SortByOrder(rows []PersistedProduct) {
	slices.SortStableFunc(rows, func(a, b PersistedProduct) int {
		return cmp.Compare(a.OrderNumber, b.OrderNumber)
	})
}
