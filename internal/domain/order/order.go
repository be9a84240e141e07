package order

import "time"

const (
	StatusPending   = "pending"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          int64       `json:"user_id"`
	Status          string      `json:"status"`
	Total           float64     `json:"total"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	City            string      `json:"city,omitempty"`
	PostalCode      string      `json:"postal_code,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	ItemsCount      int         `json:"items_count,omitempty"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

type OrderItem struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	ProductImage string  `json:"product_image,omitempty"`
	VariantID    *int64  `json:"variant_id,omitempty"`
	Quantity     int     `json:"quantity"`
	// Price is the unit price snapshotted at purchase time.
	Price float64 `json:"price"`
	Total float64 `json:"total"`
}
