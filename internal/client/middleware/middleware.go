// Package middleware talks to the local certificate middleware, a helper
// service on the user's machine that exposes installed signing certificates
// and their public keys.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

const (
	DefaultURL = "https://localhost:8443"

	maxBody = 1 << 20
)

var ErrEmptyToken = errors.New("certificate token is empty")

type Client struct {
	base   *url.URL
	http   *http.Client
	logger logging.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultURL
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse middleware url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("middleware url %q: want http(s)://host[:port]", baseURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status reports whether the middleware answers 200 on /api/status. Errors
// are logged, not returned.
func (c *Client) Status(ctx context.Context) bool {
	resp, err := c.get(ctx, "/api/status", nil, "application/json")
	if err != nil {
		c.logger.Warn(ctx, "middleware not available", "error", err)
		return false
	}
	defer drain(resp)
	return resp.StatusCode == http.StatusOK
}

// Certificates lists the tokens of the installed certificates.
func (c *Client) Certificates(ctx context.Context) ([]string, error) {
	resp, err := c.get(ctx, "/api/tokens", nil, "application/json")
	if err != nil {
		c.logger.Warn(ctx, "get certificates", "error", err)
		return nil, err
	}
	defer drain(resp)

	if err := checkStatus(resp); err != nil {
		c.logger.Warn(ctx, "get certificates", "error", err)
		return nil, err
	}

	var tokens []string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&tokens); err != nil {
		return nil, &client.DecodeError{Path: "/api/tokens", Err: err}
	}
	return tokens, nil
}

// PublicKey returns the PEM text of the certificate identified by token.
func (c *Client) PublicKey(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyToken
	}

	resp, err := c.get(ctx, "/api/public-key", url.Values{"token": {token}}, "text/plain")
	if err != nil {
		c.logger.Warn(ctx, "get public key", "error", err)
		return "", err
	}
	defer drain(resp)

	if err := checkStatus(resp); err != nil {
		c.logger.Warn(ctx, "get public key", "error", err)
		return "", err
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%w: read public key: %v", client.ErrTransport, err)
	}
	return string(b), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, accept string) (*http.Response, error) {
	rel := &url.URL{Path: path, RawQuery: q.Encode()}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: GET %s: %v", client.ErrTransport, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &client.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()
}
