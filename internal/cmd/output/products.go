package output

import (
	"io"
	"strconv"

	"github.com/agentstation/storefront/pkg/catalogs"
)

// ProductsToData converts products to table rows. The list layout and the
// wide format add category, rating and description columns.
func ProductsToData(products []catalogs.Product, layout catalogs.Layout, wide bool) Data {
	detailed := wide || layout == catalogs.LayoutList

	headers := []string{Header("id"), Header("title"), Header("price")}
	align := []Align{AlignRight, AlignLeft, AlignRight}
	if detailed {
		headers = append(headers, Header("category"), Header("rating"), Header("description"))
		align = append(align, AlignLeft, AlignRight, AlignLeft)
	}

	rows := make([][]string, 0, len(products))
	for i := range products {
		p := products[i]
		row := []string{
			idCell(p.ID),
			dash(p.TitleValue()),
			priceCell(p.Price),
		}
		if detailed {
			row = append(row,
				dash(p.CategoryValue()),
				ratingCell(p.Rating),
				dash(truncate(p.DescriptionValue(), 60)),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// WriteProducts writes products in the given format.
func WriteProducts(w io.Writer, format Format, products []catalogs.Product, layout catalogs.Layout) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, ProductsToData(products, layout, format == FormatWide))
	}
	return NewFormatter(format).Format(w, products)
}

func idCell(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func priceCell(price *float64) string {
	if price == nil {
		return "-"
	}
	return "$" + strconv.FormatFloat(*price, 'f', 2, 64)
}

func ratingCell(r *catalogs.Rating) string {
	if r == nil || r.Rate == nil {
		return "-"
	}
	return strconv.FormatFloat(r.RateValue(), 'f', 1, 64) + " (" + strconv.FormatInt(r.CountValue(), 10) + ")"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
