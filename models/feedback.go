package models

// Feedback represents user feedback
type Feedback struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	CountryCode  string   `json:"country_code"`
	MobileNumber string   `json:"mobile_number"`
	Message      string   `json:"message"`
	ContactBack  bool     `json:"contact_back"`
	FilePaths    []string `json:"file_paths"`
}
