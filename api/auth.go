package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly-client/models"
)

// Login authenticates with email and password and starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}
	return c.authenticate(ctx, "/auth/login", req, true)
}

// Register creates an account. When the backend issues tokens right away the
// session starts; otherwise the account awaits VerifyOTP.
func (c *Client) Register(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, errors.New("name, email and password are required")
	}
	return c.authenticate(ctx, "/auth/register", req, false)
}

// VerifyOTP confirms a registration code and starts a session if the backend
// returns tokens.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*models.AuthResponse, error) {
	req := models.VerifyOTPRequest{Email: strings.TrimSpace(email), OTP: strings.TrimSpace(otp)}
	if req.Email == "" || req.OTP == "" {
		return nil, errors.New("email and otp are required")
	}
	return c.authenticate(ctx, "/auth/verify-otp", req, false)
}

// ForgotPassword asks the backend to mail a reset code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	p, err := jsonPayload(map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", p, nil)
}

// ResetPassword sets a new password using the mailed code.
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return errors.New("email, otp and new password are required")
	}
	p, err := jsonPayload(req)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", p, nil)
}

// Logout clears the local session. Tokens are stateless on the backend, so
// nothing is sent.
func (c *Client) Logout() error {
	return c.session.Logout()
}

func (c *Client) authenticate(ctx context.Context, path string, body any, tokensRequired bool) (*models.AuthResponse, error) {
	p, err := jsonPayload(body)
	if err != nil {
		return nil, err
	}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, p, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		if tokensRequired {
			return nil, fmt.Errorf("%s: response has no access token", path)
		}
		return &resp, nil
	}
	if err := c.session.Login(resp.User, resp.Access, resp.Refresh); err != nil {
		c.logger.Printf("[API] session not persisted: %v", err)
	}
	return &resp, nil
}
