package product

import "time"

const (
	// Stock tracking modes. "main" keeps a single counter on the product;
	// "variants" tracks stock per size/color variant.
	StockTypeMain     = "main"
	StockTypeVariants = "variants"
)

type Product struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description,omitempty"`
	Price           float64   `json:"price"`
	SlashedPrice    *float64  `json:"slashed_price,omitempty"`
	DiscountPercent *int      `json:"discount_percent,omitempty"`
	Stock           int       `json:"stock"`
	StockType       string    `json:"stock_type"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	Category        string    `json:"category,omitempty"`
	CategorySlug    string    `json:"category_slug,omitempty"`
	SubCategoryID   *int64    `json:"sub_category_id,omitempty"`
	Image           string    `json:"image,omitempty"`
	Images          []Image   `json:"images,omitempty"`
	Variants        []Variant `json:"variants,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Variant struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	SizeName  string   `json:"size_name,omitempty"`
	ColorName string   `json:"color_name,omitempty"`
	Price     *float64 `json:"price,omitempty"` // nil means use the product price
	Stock     int      `json:"stock"`
	SKU       string   `json:"sku,omitempty"`
}

type Image struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// EffectivePrice is the price a buyer pays: the slashed price when one is
// set, otherwise the list price.
func (p Product) EffectivePrice() float64 {
	if p.SlashedPrice != nil {
		return *p.SlashedPrice
	}
	return p.Price
}
