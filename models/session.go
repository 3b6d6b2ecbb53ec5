package models

// Session is the client's record of authentication state.
type Session struct {
	AccessToken     string `json:"access_token,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
	User            *User  `json:"user,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated"`
	FirstVisit      bool   `json:"first_visit"`
}

// NewSession returns the state of a client that has never logged in.
func NewSession() Session {
	return Session{FirstVisit: true}
}
