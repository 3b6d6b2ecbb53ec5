package models

import "time"

// Person represents a user profile with body dimensions and images
type Person struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender"`
	Height     float64   `json:"height"` // in cm
	Weight     float64   `json:"weight"` // in kg
	Chest      float64   `json:"chest"`  // in inches
	Waist      float64   `json:"waist"`  // in inches
	Hips       float64   `json:"hips"`   // in inches
	ImagePaths []string  `json:"image_paths"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
