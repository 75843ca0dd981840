// Package filter narrows product lists for CLI output.
package filter

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/pkg/catalogs"
)

// ProductFilter applies filters to product lists
type ProductFilter struct {
	Category  string
	MaxPrice  float64
	MinRating float64
	Search    string // matched against title and description
}

// AddFlags registers the filter flags on cmd.
func AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "Filter by category (case-insensitive)")
	cmd.Flags().Float64("max-price", 0, "Maximum price")
	cmd.Flags().Float64("min-rating", 0, "Minimum average rating")
	cmd.Flags().String("search", "", "Search product titles and descriptions")
}

// Parse reads the filter flags registered by AddFlags.
func Parse(cmd *cobra.Command) *ProductFilter {
	f := &ProductFilter{}
	f.Category, _ = cmd.Flags().GetString("category")
	f.MaxPrice, _ = cmd.Flags().GetFloat64("max-price")
	f.MinRating, _ = cmd.Flags().GetFloat64("min-rating")
	f.Search, _ = cmd.Flags().GetString("search")
	return f
}

// Apply filters a slice of products, keeping their order.
func (f *ProductFilter) Apply(products []catalogs.Product) []catalogs.Product {
	if f == nil || f.isEmpty() {
		return products
	}

	filtered := make([]catalogs.Product, 0, len(products))
	for _, product := range products {
		if f.matches(product) {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

func (f *ProductFilter) isEmpty() bool {
	return f.Category == "" &&
		f.MaxPrice == 0 &&
		f.MinRating == 0 &&
		f.Search == ""
}

func (f *ProductFilter) matches(p catalogs.Product) bool {
	if f.Category != "" && !strings.EqualFold(p.CategoryValue(), f.Category) {
		return false
	}

	// Products without a price or rating never pass a bound on it
	if f.MaxPrice > 0 && (p.Price == nil || *p.Price > f.MaxPrice) {
		return false
	}
	if f.MinRating > 0 && (p.Rating == nil || p.Rating.Rate == nil || p.Rating.RateValue() < f.MinRating) {
		return false
	}

	if f.Search != "" && !f.matchesSearch(p) {
		return false
	}
	return true
}

func (f *ProductFilter) matchesSearch(p catalogs.Product) bool {
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(p.TitleValue()), term) ||
		strings.Contains(strings.ToLower(p.DescriptionValue()), term)
}
