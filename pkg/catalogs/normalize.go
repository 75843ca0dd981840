package catalogs

import (
	"github.com/agentstation/storefront/internal/utils/ptr"
)

// NormalizeReport describes records Normalize could not keep.
type NormalizeReport struct {
	MissingID  int     // records without an ID
	Duplicates []int64 // IDs seen more than once; the first occurrence wins
}

// Dropped returns the number of records that did not become rows.
func (r NormalizeReport) Dropped() int {
	return r.MissingID + len(r.Duplicates)
}

// Normalize converts remote records into store rows. Missing numbers become 0
// and missing strings become "". Records without an ID are dropped, as are
// repeated IDs. OrderNumber follows the order of the kept records starting at 0.
func Normalize(records []Product) ([]PersistedProduct, NormalizeReport) {
	var report NormalizeReport
	rows := make([]PersistedProduct, 0, len(records))
	seen := make(map[int64]struct{}, len(records))

	for _, rec := range records {
		if rec.ID == nil {
			report.MissingID++
			continue
		}
		id := *rec.ID
		if _, dup := seen[id]; dup {
			report.Duplicates = append(report.Duplicates, id)
			continue
		}
		seen[id] = struct{}{}

		rows = append(rows, PersistedProduct{
			ID:          id,
			Title:       ptr.Value(rec.Title),
			Description: ptr.Value(rec.Description),
			Category:    ptr.Value(rec.Category),
			ImageURL:    ptr.Value(rec.Image),
			Price:       ptr.Value(rec.Price),
			Rate:        rec.Rating.RateValue(),
			RateCount:   rec.Rating.CountValue(),
			OrderNumber: int64(len(rows)),
		})
	}
	return rows, report
}

// Denormalize maps store rows back to products, each with a fresh identity token.
// The two rating columns are reassembled into a Rating.
func Denormalize(rows []PersistedProduct) []Product {
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		p := NewProduct()
		p.ID = ptr.To(row.ID)
		p.Title = ptr.To(row.Title)
		p.Price = ptr.To(row.Price)
		p.Description = ptr.To(row.Description)
		p.Category = ptr.To(row.Category)
		p.Image = ptr.To(row.ImageURL)
		p.Rating = &Rating{Rate: ptr.To(row.Rate), Count: ptr.To(row.RateCount)}
		products = append(products, p)
	}
	return products
}
