package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
)

const refreshPath = "/api/auth/refresh"

// refreshState is the Idle/Refreshing machine. group holds the single
// in-flight refresh and its waiters; gen counts finished attempts so that a
// request whose 401 arrives after an attempt it did not join reuses that
// attempt's outcome instead of starting another one.
type refreshState struct {
	group      singleflight.Group
	refreshing atomic.Bool

	mu        sync.Mutex
	gen       uint64
	lastToken string
	lastErr   error
}

// Refreshing reports whether a refresh call is outstanding.
func (c *Client) Refreshing() bool {
	return c.refresh.refreshing.Load()
}

// Refresh exchanges the stored refresh token for a new access token and
// persists it. Concurrent callers, including requests replaying after a 401,
// share a single refresh call.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshSince(ctx, c.generation())
}

func (c *Client) generation() uint64 {
	c.refresh.mu.Lock()
	defer c.refresh.mu.Unlock()
	return c.refresh.gen
}

func (c *Client) refreshSince(ctx context.Context, gen uint64) (string, error) {
	rs := &c.refresh

	ch := rs.group.DoChan("refresh", func() (any, error) {
		rs.mu.Lock()
		if rs.gen != gen {
			token, err := rs.lastToken, rs.lastErr
			rs.mu.Unlock()
			return token, err
		}
		rs.mu.Unlock()

		rs.refreshing.Store(true)
		defer rs.refreshing.Store(false)

		// The attempt outlives the caller that started it: other waiters
		// depend on its outcome.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		token, err := c.exchange(rctx)

		rs.mu.Lock()
		rs.gen++
		rs.lastToken, rs.lastErr = token, err
		rs.mu.Unlock()

		return token, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// exchange performs the unauthenticated refresh call.
func (c *Client) exchange(ctx context.Context) (string, error) {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: read refresh token: %w", ErrRefreshFailed, err)
	}
	if refreshToken == "" {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoRefreshToken)
	}

	req, err := NewJSONRequest(http.MethodPost, refreshPath, models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	req.SkipRefresh = true

	resp, err := c.send(ctx, req, "")
	if err == nil {
		resp, err = c.checkStatus(resp)
	}
	if err != nil {
		c.logger.Warn(ctx, "session refresh failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	defer closeBody(resp)

	var pair tokenstore.Pair
	if err := decodeInto(resp.Body, refreshPath, &pair); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if pair.RefreshToken != "" {
		err = c.tokens.SetPair(ctx, pair)
	} else {
		err = c.tokens.SetAccessToken(ctx, pair.AccessToken)
	}
	if err != nil {
		return "", fmt.Errorf("%w: persist token: %w", ErrRefreshFailed, err)
	}

	c.logger.Info(ctx, "session refreshed")
	return pair.AccessToken, nil
}
