// Package api is the HTTP client for the Fitly backend. It attaches the
// session's bearer token to every request and, when the backend answers 401,
// refreshes the token once on behalf of every request that hit the same
// expiry before replaying them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/raushankrgupta/fitly-client/store"
	"github.com/raushankrgupta/fitly-client/utils"
)

const (
	DefaultRefreshTimeout = 15 * time.Second
	defaultHTTPTimeout    = 30 * time.Second

	// RequestIDHeader carries a fresh id per attempt, replays included.
	RequestIDHeader = "X-Request-ID"
)

// ErrReauthRequired means the session could not be refreshed and has been
// cleared. The user must log in again.
var ErrReauthRequired = errors.New("session expired, please log in again")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fitly api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("fitly api: status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Retryable reports whether a failed request may succeed if sent again.
// Transport errors, 5xx, 408 and 429 are retryable. An expired session and
// other 4xx replies are final.
func Retryable(err error) bool {
	if errors.Is(err, ErrReauthRequired) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch apiErr.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return apiErr.StatusCode < 400 || apiErr.StatusCode >= 500
}

// Requests to these paths are never intercepted on 401. A 401 here means bad
// credentials, not an expired token.
var authPaths = map[string]bool{
	"/auth/login":           true,
	"/auth/register":        true,
	"/auth/refresh":         true,
	"/auth/verify-otp":      true,
	"/auth/forgot-password": true,
	"/auth/reset-password":  true,
}

func isAuthPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return authPaths[path]
}

// ImageUploader stores a local file and returns the key the backend can read
// it from.
type ImageUploader interface {
	UploadFile(ctx context.Context, path, folderPrefix string) (string, error)
}

type (
	// Option configures the Client.
	Option func(*Client)

	Client struct {
		baseURL        string
		http           *http.Client
		session        *store.SessionStore
		limiter        *rate.Limiter
		uploader       ImageUploader
		refreshTimeout time.Duration
		onReauth       func(error)
		logger         *log.Logger

		refresh refresher
	}
)

// WithHTTPClient overrides the underlying *http.Client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUploader sends local analysis images through u instead of multipart.
func WithUploader(u ImageUploader) Option {
	return func(cl *Client) {
		cl.uploader = u
	}
}

// WithRefreshTimeout bounds each token refresh call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.refreshTimeout = d
		}
	}
}

// WithReauthHandler registers fn to run once per unrecoverable refresh
// failure, after the session has been cleared. Front-ends use it to send the
// user back to the login screen.
func WithReauthHandler(fn func(error)) Option {
	return func(cl *Client) {
		cl.onReauth = fn
	}
}

// WithLogger sets where the client logs requests and refresh events.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New constructs a Client for the backend at baseURL backed by session.
func New(baseURL string, session *store.SessionStore, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, errors.New("api: session store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", baseURL)
	}
	cl := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: defaultHTTPTimeout},
		session:        session,
		refreshTimeout: DefaultRefreshTimeout,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cl)
		}
	}
	if cl.http == nil {
		cl.http = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cl.logger == nil {
		cl.logger = log.Default()
	}
	return cl, nil
}

// Session exposes the store the client reads tokens from.
func (c *Client) Session() *store.SessionStore {
	return c.session
}

// payload is a buffered request body, replayable as many times as needed.
type payload struct {
	body        []byte
	contentType string
}

func jsonPayload(v any) (*payload, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &payload{body: body, contentType: "application/json"}, nil
}

// do sends one logical request and decodes a 2xx JSON response into out
// (nil discards the body). A 401 outside the auth endpoints triggers the
// shared refresh and a single replay.
func (c *Client) do(ctx context.Context, method, path string, p *payload, out any) error {
	var logMessageBuilder strings.Builder
	defer func() {
		c.logger.Print(logMessageBuilder.String())
	}()
	utils.AddToLogMessagef(&logMessageBuilder, "[API] %s %s", method, path)

	sentWith := c.session.AccessToken()
	resp, err := c.send(ctx, method, path, p, sentWith)
	if err != nil {
		utils.AddToLogMessagef(&logMessageBuilder, "request failed: %v", err)
		return err
	}
	utils.AddToLogMessagef(&logMessageBuilder, "status %d", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) {
		unauthorized := readAPIError(resp)
		access, err := c.recoverToken(ctx, sentWith, unauthorized)
		if err != nil {
			utils.AddToLogMessagef(&logMessageBuilder, "not replayed: %v", err)
			return err
		}
		utils.AddToLogMessage(&logMessageBuilder, "replaying with refreshed token")
		resp, err = c.send(ctx, method, path, p, access)
		if err != nil {
			utils.AddToLogMessagef(&logMessageBuilder, "replay failed: %v", err)
			return err
		}
		utils.AddToLogMessagef(&logMessageBuilder, "replay status %d", resp.StatusCode)
	}

	return decodeResponse(resp, out)
}

// send performs a single attempt with the given access token.
func (c *Client) send(ctx context.Context, method, path string, p *payload, access string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if p != nil {
		body = bytes.NewReader(p.body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if p != nil && p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readAPIError consumes and closes the body of a non-2xx response.
func readAPIError(resp *http.Response) *APIError {
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && (body.Error != "" || body.Message != "") {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
