package models

import "time"

// Variant represents a specific product variation
type Variant struct {
	ASIN   string   `json:"asin"`
	Size   string   `json:"size"`
	Color  string   `json:"color"`
	Images []string `json:"image_paths"`
}

// Product represents the product details the backend scraped or matched
type Product struct {
	ID               string    `json:"id,omitempty"`
	URL              string    `json:"url,omitempty"`
	Title            string    `json:"title"`
	MRP              string    `json:"mrp"`              // Maximum Retail Price (List Price)
	DiscountedPrice  string    `json:"discounted_price"` // Selling Price
	Discount         string    `json:"discount"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Subcategory      string    `json:"subcategory"`
	Dimensions       string    `json:"dimensions"`
	Material         string    `json:"material"`
	FitType          string    `json:"fit_type"`
	Images           []string  `json:"image_paths"`
	CurrentSelection *Variant  `json:"current_selection"`
	Variants         []Variant `json:"variants,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// SellingPrice is the discounted price when present, otherwise the MRP.
func (p Product) SellingPrice() string {
	if p.DiscountedPrice != "" {
		return p.DiscountedPrice
	}
	return p.MRP
}
