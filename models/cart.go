package models

// ProductRef is the slice of a product the cart needs to render and price a
// line. Price is in minor currency units (paise, cents).
type ProductRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
	Price    int64  `json:"price"`
	Currency string `json:"currency,omitempty"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
}

// CartItem is one line of the cart, unique by ItemID.
type CartItem struct {
	ItemID   string     `json:"item_id"`
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// CartTotals are derived from the items, never stored.
type CartTotals struct {
	Quantity int   `json:"quantity"`
	Price    int64 `json:"price"`
}

// Totals sums quantity and price × quantity over items.
func Totals(items []CartItem) CartTotals {
	var t CartTotals
	for _, it := range items {
		t.Quantity += it.Quantity
		t.Price += it.Product.Price * int64(it.Quantity)
	}
	return t
}
