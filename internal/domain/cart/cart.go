package cart

type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
	Count  int        `json:"count"`
}

type CartItem struct {
	ID       int64        `json:"id"`
	Quantity int          `json:"quantity"`
	Product  ItemProduct  `json:"product"`
	Variant  *ItemVariant `json:"variant,omitempty"`
}

type ItemProduct struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Image        string  `json:"image,omitempty"`
	Category     string  `json:"category,omitempty"`
	CategorySlug string  `json:"category_slug,omitempty"`
	Stock        int     `json:"stock"`
	StockType    string  `json:"stock_type"`
}

type ItemVariant struct {
	ID        int64  `json:"id"`
	SizeName  string `json:"size_name,omitempty"`
	ColorName string `json:"color_name,omitempty"`
	Stock     int    `json:"stock"`
}
