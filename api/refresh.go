package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/raushankrgupta/fitly-client/models"
)

const refreshPath = "/auth/refresh"

// refresher coordinates token refreshes so that at most one is in flight per
// client. Requests that fail while it runs wait for its outcome.
type refresher struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

type refreshOutcome struct {
	access string
	err    error
}

// recoverToken returns the access token a request that got a 401 should be
// replayed with. sentWith is the token the failed attempt carried.
func (c *Client) recoverToken(ctx context.Context, sentWith string, unauthorized *APIError) (string, error) {
	r := &c.refresh

	r.mu.Lock()
	if current := c.session.AccessToken(); current != "" && current != sentWith {
		// A refresh finished while this request was in flight.
		r.mu.Unlock()
		return current, nil
	}
	if r.refreshing {
		ch := make(chan refreshOutcome, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()
		select {
		case out := <-ch:
			return out.access, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	r.refreshing = true
	r.mu.Unlock()

	access, err := c.runRefresh(ctx, unauthorized)

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.refreshing = false
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshOutcome{access: access, err: err}
	}
	return access, err
}

// runRefresh exchanges the refresh token for a new pair. It is detached from
// the caller's cancellation so one abandoned request cannot fail the others
// waiting on the same refresh.
func (c *Client) runRefresh(ctx context.Context, unauthorized *APIError) (string, error) {
	_, refreshToken := c.session.Tokens()
	if refreshToken == "" {
		return "", c.expire(unauthorized)
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	defer cancel()

	p, err := jsonPayload(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", c.expire(err)
	}
	resp, err := c.send(refreshCtx, http.MethodPost, refreshPath, p, "")
	if err != nil {
		return "", c.expire(fmt.Errorf("refresh token: %w", err))
	}
	var pair models.TokenPair
	if err := decodeResponse(resp, &pair); err != nil {
		return "", c.expire(fmt.Errorf("refresh token: %w", err))
	}
	if pair.Access == "" {
		return "", c.expire(errors.New("refresh token: response has no access token"))
	}

	if err := c.session.SetTokens(pair.Access, pair.Refresh); err != nil {
		c.logger.Printf("[API] refreshed tokens not persisted: %v", err)
	}
	return pair.Access, nil
}

// expire clears the session, fires the reauth hook and returns the error every
// waiting request fails with.
func (c *Client) expire(cause error) error {
	if err := c.session.Logout(); err != nil {
		c.logger.Printf("[API] clearing session failed: %v", err)
	}
	err := fmt.Errorf("%w: %w", ErrReauthRequired, cause)
	if c.onReauth != nil {
		c.onReauth(err)
	}
	return err
}
