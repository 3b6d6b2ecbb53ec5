package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/store"
)

var quiet = log.New(io.Discard, "", 0)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *store.SessionStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session := store.NewSessionStore(store.NewMemoryBackend(), quiet)
	opts = append([]Option{WithLogger(quiet)}, opts...)
	c, err := New(srv.URL, session, opts...)
	require.NoError(t, err)
	return c, session
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// refreshBackend serves /gallery, accepting only the fresh token, and
// /auth/refresh, which succeeds unless failRefresh is set.
type refreshBackend struct {
	refreshCalls atomic.Int32
	galleryCalls atomic.Int32
	refreshDelay time.Duration
	failRefresh  bool
	alwaysReject bool

	// stale holds 401 responses until this many stale requests arrived.
	stale *sync.WaitGroup
}

func (b *refreshBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/refresh":
		b.refreshCalls.Add(1)
		time.Sleep(b.refreshDelay)
		var body struct {
			Refresh string `json:"refresh"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if b.failRefresh || body.Refresh != "refresh-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, models.TokenPair{Access: "fresh", Refresh: "refresh-2"})
	case "/gallery":
		b.galleryCalls.Add(1)
		if r.Header.Get("Authorization") == "Bearer fresh" && !b.alwaysReject {
			writeJSON(w, http.StatusOK, models.GalleryPage{CurrentPage: 1, Total: 3})
			return
		}
		if b.stale != nil && r.Header.Get("Authorization") == "Bearer stale" {
			b.stale.Done()
			b.stale.Wait()
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	default:
		http.NotFound(w, r)
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const n = 8
	var stale sync.WaitGroup
	stale.Add(n)
	backend := &refreshBackend{refreshDelay: 100 * time.Millisecond, stale: &stale}
	c, session := newTestClient(t, backend)
	require.NoError(t, session.Login(&models.User{ID: "u1"}, "stale", "refresh-1"))

	var (
		wg   sync.WaitGroup
		errs = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := c.Gallery(context.Background(), 1, 10)
			if err == nil && page.Total != 3 {
				err = errors.New("unexpected page")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	require.Equal(t, int32(2*n), backend.galleryCalls.Load())

	access, refresh := session.Tokens()
	require.Equal(t, "fresh", access)
	require.Equal(t, "refresh-2", refresh)
	require.True(t, session.IsAuthenticated())
}

func TestFailedRefreshRejectsEveryWaiter(t *testing.T) {
	const n = 5
	var stale sync.WaitGroup
	stale.Add(n)
	backend := &refreshBackend{refreshDelay: 100 * time.Millisecond, failRefresh: true, stale: &stale}

	var hookCalls atomic.Int32
	c, session := newTestClient(t, backend, WithReauthHandler(func(error) { hookCalls.Add(1) }))
	require.NoError(t, session.Login(&models.User{ID: "u1"}, "stale", "refresh-1"))

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Gallery(context.Background(), 1, 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, ErrReauthRequired)
	}
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	require.Equal(t, int32(1), hookCalls.Load())

	snap := session.Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, snap.AccessToken)
	require.Empty(t, snap.RefreshToken)
	require.Nil(t, snap.User)
}

func TestMissingRefreshTokenRequiresLogin(t *testing.T) {
	backend := &refreshBackend{}
	var hookErr error
	c, session := newTestClient(t, backend, WithReauthHandler(func(err error) { hookErr = err }))
	require.NoError(t, session.Login(nil, "stale", ""))

	_, err := c.Gallery(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.True(t, IsStatus(err, http.StatusUnauthorized), "the original 401 is kept")
	require.ErrorIs(t, hookErr, ErrReauthRequired)
	require.Equal(t, int32(0), backend.refreshCalls.Load())
	require.False(t, session.IsAuthenticated())
}

func TestReplayedRequestIsNotInterceptedAgain(t *testing.T) {
	backend := &refreshBackend{alwaysReject: true}
	c, session := newTestClient(t, backend)
	require.NoError(t, session.Login(nil, "stale", "refresh-1"))

	_, err := c.Gallery(context.Background(), 1, 10)
	require.True(t, IsStatus(err, http.StatusUnauthorized))
	require.NotErrorIs(t, err, ErrReauthRequired)
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	require.Equal(t, int32(2), backend.galleryCalls.Load())
	require.True(t, session.IsAuthenticated())
}

func TestRequestAfterRefreshReplaysWithoutRefreshing(t *testing.T) {
	backend := &refreshBackend{}
	c, session := newTestClient(t, backend)
	require.NoError(t, session.Login(nil, "fresh", "refresh-1"))

	// The request went out with an old token; the store already holds a
	// newer one.
	access, err := c.recoverToken(context.Background(), "stale", &APIError{StatusCode: 401})
	require.NoError(t, err)
	require.Equal(t, "fresh", access)
	require.Equal(t, int32(0), backend.refreshCalls.Load())
}

func TestRefreshOutlivesCallerCancellation(t *testing.T) {
	backend := &refreshBackend{refreshDelay: 50 * time.Millisecond}
	c, session := newTestClient(t, backend)
	require.NoError(t, session.Login(nil, "stale", "refresh-1"))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	_, err := c.recoverToken(ctx, "stale", &APIError{StatusCode: 401})
	require.NoError(t, err)
	require.Equal(t, "fresh", session.AccessToken())
}

func TestAuthEndpointsAreNotIntercepted(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, models.TokenPair{Access: "fresh"})
	})
	c, session := newTestClient(t, mux)
	require.NoError(t, session.Login(nil, "stale", "refresh-1"))

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "invalid credentials", apiErr.Message)
	require.Equal(t, int32(0), refreshCalls.Load())
	require.Equal(t, "stale", session.AccessToken())
}

func TestHeaders(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []http.Header
	)
	c, session := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Clone())
		mu.Unlock()
		writeJSON(w, http.StatusOK, models.GalleryPage{})
	}))

	_, err := c.Gallery(context.Background(), 0, 0)
	require.NoError(t, err)
	require.NoError(t, session.Login(nil, "tok", "ref"))
	_, err = c.Gallery(context.Background(), 2, 5)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	require.Empty(t, seen[0].Get("Authorization"))
	require.Equal(t, "Bearer tok", seen[1].Get("Authorization"))
	require.NotEmpty(t, seen[0].Get(RequestIDHeader))
	require.NotEqual(t, seen[0].Get(RequestIDHeader), seen[1].Get(RequestIDHeader))
}

func TestAPIErrorMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/scrape", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Scraping failed: timeout", http.StatusInternalServerError)
	})
	mux.HandleFunc("/gallery", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad page"})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Scrape(context.Background(), "https://shop.example/p/1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "Scraping failed: timeout", apiErr.Message)

	_, err = c.Gallery(context.Background(), 1, 1)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "bad page", apiErr.Message)
	require.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestNewValidatesArguments(t *testing.T) {
	session := store.NewSessionStore(store.NewMemoryBackend(), quiet)
	_, err := New("not a url", session)
	require.Error(t, err)
	_, err = New("http://localhost:8080", nil)
	require.Error(t, err)

	c, err := New("http://localhost:8080/", session)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", c.baseURL)
	require.Equal(t, DefaultRefreshTimeout, c.refreshTimeout)
}

func TestRateLimitPacesRequests(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.GalleryPage{})
	}), WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Gallery(context.Background(), 1, 1)
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestIsAuthPath(t *testing.T) {
	require.True(t, isAuthPath("/auth/login"))
	require.True(t, isAuthPath("/auth/refresh?x=1"))
	require.False(t, isAuthPath("/gallery"))
	require.False(t, isAuthPath("/auth/me"))
}
