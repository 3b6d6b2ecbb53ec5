package models

import "time"

// User is the identity record the backend returns on login and registration.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	DOB       string    `json:"dob,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Status    string    `json:"status"` // pending, verified, active
	CreatedAt time.Time `json:"created_at"`
}

// SignupRequest represents the payload for user registration
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DOB      string `json:"dob,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// LoginRequest represents the payload for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest represents the payload for verifying OTP
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest represents the payload for resetting password
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// AuthResponse is returned by /auth/login and /auth/register.
type AuthResponse struct {
	Message string `json:"message,omitempty"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

// TokenPair is the body of a /auth/refresh response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
