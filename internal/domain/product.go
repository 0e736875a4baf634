package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type ProductImage struct {
	ID        int64  `json:"id,omitempty"`
	Image     string `json:"image"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

type ProductAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Product struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	SKU                string             `json:"sku,omitempty"`
	ShortDescription   string             `json:"short_description,omitempty"`
	Description        string             `json:"description,omitempty"`
	Price              decimal.Decimal    `json:"price"`
	ComparePrice       *decimal.Decimal   `json:"compare_price,omitempty"`
	DiscountPercentage *float64           `json:"discount_percentage,omitempty"`
	IsOnSale           bool               `json:"is_on_sale"`
	IsInStock          bool               `json:"is_in_stock"`
	TrackQuantity      bool               `json:"track_quantity,omitempty"`
	Quantity           *int               `json:"quantity,omitempty"`
	Featured           bool               `json:"featured,omitempty"`
	MainImage          string             `json:"main_image,omitempty"`
	Images             []ProductImage     `json:"images,omitempty"`
	Variants           []Variant          `json:"variants,omitempty"`
	Attributes         []ProductAttribute `json:"attributes,omitempty"`
	Category           any                `json:"category,omitempty"`
	Brand              any                `json:"brand,omitempty"`
	AverageRating      *float64           `json:"average_rating,omitempty"`
	ReviewCount        int                `json:"review_count,omitempty"`
	RelatedProducts    []Product          `json:"related_products,omitempty"`
}

// Page is the paginated envelope used by every list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type ProductPage struct {
	Page[Product]
	Filters json.RawMessage `json:"filters,omitempty"`
}
