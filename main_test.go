package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-client/api"
	"github.com/raushankrgupta/fitly-client/config"
	"github.com/raushankrgupta/fitly-client/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{
			Access:  "access-1",
			Refresh: "refresh-1",
			User:    &models.User{ID: "u1", Name: "Asha", Email: req.Email},
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh token revoked"})
	})
	mux.HandleFunc("/gallery", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})
	mux.HandleFunc("/analysis", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, models.JobSubmission{JobID: 5, Status: models.JobPending})
	})
	mux.HandleFunc("/analysis/6/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})
	mux.HandleFunc("/analysis/5/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.JobStatus{Status: models.JobDone, Progress: 100})
	})
	mux.HandleFunc("/analysis/5/result", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AnalysisResult{Garments: []models.DetectedGarment{{
			Label:      "kurta",
			Category:   "tops",
			Confidence: 0.88,
			Matches:    []models.Match{{Product: models.Product{Title: "Cotton Kurta", DiscountedPrice: "₹899"}, Score: 0.7}},
		}}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	srv := fakeBackend(t)
	dir := t.TempDir()
	base := []string{"--api", srv.URL, "--state-dir", dir}

	out, err := run(t, append(base, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "welcome")

	_, err = run(t, append(base, "login", "--email", "asha@example.com", "--password", "wrong")...)
	require.True(t, api.IsStatus(err, http.StatusUnauthorized))

	out, err = run(t, append(base, "login", "--email", "asha@example.com", "--password", "secret")...)
	require.NoError(t, err)
	require.Contains(t, out, "logged in as Asha")

	out, err = run(t, append(base, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "user: u1")
	require.Contains(t, out, "email: asha@example.com")

	out, err = run(t, append(base, "logout")...)
	require.NoError(t, err)
	require.Contains(t, out, "logged out")

	out, err = run(t, append(base, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")
	require.NotContains(t, out, "welcome")
}

func TestExpiredSessionRequiresLogin(t *testing.T) {
	srv := fakeBackend(t)
	base := []string{"--api", srv.URL, "--state-dir", t.TempDir()}

	_, err := run(t, append(base, "login", "--email", "asha@example.com", "--password", "secret")...)
	require.NoError(t, err)

	_, err = run(t, append(base, "gallery")...)
	require.ErrorIs(t, err, api.ErrReauthRequired)

	out, err := run(t, append(base, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")
}

func TestAnalyzeWaitsForResult(t *testing.T) {
	srv := fakeBackend(t)
	out, err := run(t, "--api", srv.URL, "--ephemeral", "analyze", "https://cdn.example/look.jpg")
	require.NoError(t, err)
	require.Contains(t, out, "analysis job 5 submitted")
	require.Contains(t, out, "kurta (tops) 88%")
	require.Contains(t, out, "Cotton Kurta")
}

func TestWatchEndsWhenSessionExpires(t *testing.T) {
	srv := fakeBackend(t)
	base := []string{"--api", srv.URL, "--state-dir", t.TempDir()}

	_, err := run(t, append(base, "login", "--email", "asha@example.com", "--password", "secret")...)
	require.NoError(t, err)

	start := time.Now()
	_, err = run(t, append(base, "watch", "analysis", "6")...)
	require.ErrorIs(t, err, api.ErrReauthRequired)
	require.Less(t, time.Since(start), 5*time.Second)

	out, err := run(t, append(base, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")
}

func TestWatchRejectsBadArguments(t *testing.T) {
	_, err := run(t, "--ephemeral", "--api", "http://localhost:1", "watch", "analysis", "zero")
	require.Error(t, err)

	_, err = run(t, "--ephemeral", "--api", "http://localhost:1", "watch", "styling", "3")
	require.Error(t, err)
}

func TestCartCommands(t *testing.T) {
	base := []string{"--api", "http://localhost:1", "--state-dir", t.TempDir()}

	out, err := run(t, append(base, "cart", "add", "sku-1", "--title", "Linen Shirt", "--price", "₹1,299", "--qty", "2")...)
	require.NoError(t, err)
	require.Contains(t, out, "item sku-1")

	_, err = run(t, append(base, "cart", "add", "sku-1", "--title", "Linen Shirt", "--price", "₹1,299")...)
	require.NoError(t, err)

	out, err = run(t, append(base, "cart", "list")...)
	require.NoError(t, err)
	require.Contains(t, out, "Linen Shirt")
	require.Contains(t, out, "₹3897.00")

	_, err = run(t, append(base, "cart", "set", "sku-1", "1")...)
	require.NoError(t, err)
	out, err = run(t, append(base, "cart", "list")...)
	require.NoError(t, err)
	require.Contains(t, out, "₹1299.00")

	_, err = run(t, append(base, "cart", "set", "missing", "1")...)
	require.Error(t, err)

	_, err = run(t, append(base, "cart", "set", "sku-1", "0")...)
	require.NoError(t, err)
	out, err = run(t, append(base, "cart", "list")...)
	require.NoError(t, err)
	require.Contains(t, out, "cart is empty")

	_, err = run(t, append(base, "cart", "add", "sku-2")...)
	require.Error(t, err, "title is required")
}

func TestCartTotalsPerCurrency(t *testing.T) {
	base := []string{"--api", "http://localhost:1", "--state-dir", t.TempDir()}

	_, err := run(t, append(base, "cart", "add", "sku-1", "--title", "Linen Shirt", "--price", "₹1,299", "--qty", "2")...)
	require.NoError(t, err)
	_, err = run(t, append(base, "cart", "add", "sku-9", "--title", "Canvas Tote", "--price", "25.50", "--currency", "USD")...)
	require.NoError(t, err)

	out, err := run(t, append(base, "cart", "list")...)
	require.NoError(t, err)
	require.Contains(t, out, "₹2598.00")
	require.Contains(t, out, "USD 25.50")
	require.Equal(t, 2, strings.Count(out, "TOTAL"))
}

func TestSealedStateOnDisk(t *testing.T) {
	prev := config.SessionSecret
	config.SessionSecret = "kiosk-secret"
	t.Cleanup(func() { config.SessionSecret = prev })

	srv := fakeBackend(t)
	dir := t.TempDir()
	base := []string{"--api", srv.URL, "--state-dir", dir}

	_, err := run(t, append(base, "login", "--email", "asha@example.com", "--password", "secret")...)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "fitly.session.json"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "access-1")

	out, err := run(t, append(base, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "user: u1")
}

func TestUnknownStore(t *testing.T) {
	_, err := run(t, "--api", "http://localhost:1", "--store", "redis", "whoami")
	require.Error(t, err)
}
