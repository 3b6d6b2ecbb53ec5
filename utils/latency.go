package utils

import (
	"log"
	"net/http"
	"time"
)

// LatencyTransport logs the duration of each outgoing request.
type LatencyTransport struct {
	Next   http.RoundTripper
	Logger *log.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *LatencyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		logger.Printf("[LATENCY] %s %s - %v (error: %v)", req.Method, req.URL.Path, duration, err)
		return nil, err
	}
	logger.Printf("[LATENCY] %s %s - %d - %v", req.Method, req.URL.Path, resp.StatusCode, duration)
	return resp, nil
}
