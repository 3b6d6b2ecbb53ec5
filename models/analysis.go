package models

// AnalysisRequest submits an image for garment detection. Exactly one of
// ImageURL or ImageKey is set when sent as JSON.
type AnalysisRequest struct {
	ImageURL    string `json:"image_url,omitempty"`
	ImageKey    string `json:"image_key,omitempty"`
	Description string `json:"description,omitempty"`
}

// DetectedGarment is one garment the backend found in the analysed image.
type DetectedGarment struct {
	Label      string    `json:"label"`
	Category   string    `json:"category"`
	Color      string    `json:"color,omitempty"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box,omitempty"` // x, y, w, h normalised to 0..1
	Matches    []Match   `json:"matches"`
}

// Match is a catalogue product matched to a detected garment.
type Match struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// AnalysisResult is the payload of a finished analysis job.
type AnalysisResult struct {
	Garments []DetectedGarment `json:"garments"`
}

// LinkPreview is the card shown for a pasted product URL.
type LinkPreview struct {
	URL         string `json:"url"`
	SiteName    string `json:"site_name,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Price       string `json:"price,omitempty"`
	PriceMinor  int64  `json:"price_minor,omitempty"`
	Currency    string `json:"currency,omitempty"`
	// Retailer is set when the backend can import products from the site.
	Retailer string `json:"retailer,omitempty"`
}
