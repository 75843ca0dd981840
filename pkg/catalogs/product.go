package catalogs

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/agentstation/storefront/internal/utils/ptr"
)

// Product is one catalog item as delivered by the remote API. Every field is
// optional; absent fields stay nil through decoding.
type Product struct {
	ID          *int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Title       *string  `json:"title,omitempty" yaml:"title,omitempty"`
	Price       *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Category    *string  `json:"category,omitempty" yaml:"category,omitempty"`
	Image       *string  `json:"image,omitempty" yaml:"image,omitempty"`
	Rating      *Rating  `json:"rating,omitempty" yaml:"rating,omitempty"`

	// token identifies this instance for list diffing. It is never persisted.
	token uuid.UUID
}

// Rating is the aggregate customer rating of a product.
type Rating struct {
	Rate  *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Count *int64   `json:"count,omitempty" yaml:"count,omitempty"`
}

// NewProduct returns an empty product with a fresh identity token.
func NewProduct() Product {
	return Product{token: uuid.New()}
}

// UnmarshalJSON decodes a product and assigns it a fresh identity token.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Product(decoded)
	p.token = uuid.New()
	return nil
}

// Token returns the per-instance identity token, creating one if the product
// was built as a zero value.
func (p *Product) Token() uuid.UUID {
	if p.token == uuid.Nil {
		p.token = uuid.New()
	}
	return p.token
}

// Key returns a stable diffing key: the remote ID when present, the instance
// token otherwise.
func (p *Product) Key() string {
	if p.ID != nil {
		return "id:" + strconv.FormatInt(*p.ID, 10)
	}
	return "token:" + p.Token().String()
}

// IDValue returns the remote ID or 0.
func (p Product) IDValue() int64 { return ptr.Value(p.ID) }

// TitleValue returns the title or "".
func (p Product) TitleValue() string { return ptr.Value(p.Title) }

// PriceValue returns the price or 0.
func (p Product) PriceValue() float64 { return ptr.Value(p.Price) }

// DescriptionValue returns the description or "".
func (p Product) DescriptionValue() string { return ptr.Value(p.Description) }

// CategoryValue returns the category or "".
func (p Product) CategoryValue() string { return ptr.Value(p.Category) }

// ImageValue returns the image URL or "".
func (p Product) ImageValue() string { return ptr.Value(p.Image) }

// RateValue returns the rating rate or 0.
func (r *Rating) RateValue() float64 {
	if r == nil {
		return 0
	}
	return ptr.Value(r.Rate)
}

// CountValue returns the rating count or 0.
func (r *Rating) CountValue() int64 {
	if r == nil {
		return 0
	}
	return ptr.Value(r.Count)
}

// Equal compares the catalog content of two products, ignoring identity tokens.
func (p Product) Equal(other Product) bool {
	return ptr.Equal(p.ID, other.ID) &&
		ptr.Equal(p.Title, other.Title) &&
		ptr.Equal(p.Price, other.Price) &&
		ptr.Equal(p.Description, other.Description) &&
		ptr.Equal(p.Category, other.Category) &&
		ptr.Equal(p.Image, other.Image) &&
		p.Rating.equal(other.Rating)
}

func (r *Rating) equal(other *Rating) bool {
	if r == nil || other == nil {
		return r == nil && other == nil
	}
	return ptr.Equal(r.Rate, other.Rate) && ptr.Equal(r.Count, other.Count)
}
