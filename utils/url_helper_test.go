package utils

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveShortenedURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/p/shirt-123", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/p/shirt-123", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := ResolveShortenedURL(context.Background(), srv.Client(), srv.URL+"/short")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/p/shirt-123", got)
}

func TestLatencyTransportLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: &LatencyTransport{Logger: log.New(&buf, "", 0)}}
	resp, err := client.Get(srv.URL + "/gallery")
	require.NoError(t, err)
	resp.Body.Close()

	require.True(t, strings.HasPrefix(buf.String(), "[LATENCY] GET /gallery - 418 - "), buf.String())
}

func TestAddToLogMessage(t *testing.T) {
	var b strings.Builder
	AddToLogMessage(&b, "[Login]")
	AddToLogMessagef(&b, "user %s", "a@b.c")
	AddToLogMessage(nil, "ignored")
	require.Equal(t, "[Login];\nuser a@b.c;\n", b.String())
}
