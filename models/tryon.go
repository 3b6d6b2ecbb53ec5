package models

import "time"

// TryOnRequest represents the request body for virtual try-on
type TryOnRequest struct {
	ProductID string `json:"product_id"`
	PersonID  string `json:"person_id"`
}

// TryOn represents a virtual try-on session and result
type TryOn struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	PersonID          string    `json:"person_id"`
	ProductURL        string    `json:"product_url"`
	ProductID         string    `json:"product_id,omitempty"`
	PersonImageURL    string    `json:"person_image_url"`
	ProductImageURL   string    `json:"product_image_url,omitempty"`
	GeneratedImageURL string    `json:"generated_image_url"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// GalleryPage represents one page of the user's generated images
type GalleryPage struct {
	Images      []TryOn `json:"images"`
	Total       int64   `json:"total"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
}
