package client

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

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultServerURL = "http://127.0.0.1:8080"
	defaultUserAgent = "gophstore/0.1"
	defaultTimeout   = 30 * time.Second

	maxErrorBody = 64 << 10
)

// Validator is implemented by response types that can check their own shape.
type Validator interface {
	Validate() error
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    tokenstore.Store
	logger    logging.Logger
	userAgent string
	timeout   time.Duration

	refresh refreshState
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds the wait for response headers and the whole refresh
// call. Bodies (downloads, uploads) are bounded by the caller's context only.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New builds a Client for baseURL (host:port or full URL) backed by tokens.
func New(baseURL string, tokens tokenstore.Store, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, errors.New("token store is nil")
	}

	c := &Client{
		baseURL:   base,
		tokens:    tokens,
		logger:    logging.Nop(),
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = c.timeout
		c.http = &http.Client{Transport: transport}
	}
	return c, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do performs req and decodes a 2xx JSON body into dest (skipped when dest
// is nil). If dest implements Validator it is validated after decoding.
func (c *Client) Do(ctx context.Context, req *Request, dest any) error {
	resp, err := c.execute(ctx, req)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if dest == nil {
		return nil
	}
	return decodeInto(resp.Body, req.Path, dest)
}

// Stream performs req and hands back the successful response unread. The
// caller must close the body.
func (c *Client) Stream(ctx context.Context, req *Request) (*http.Response, error) {
	return c.execute(ctx, req)
}

// execute runs the attach-token / refresh-once / replay cycle and returns
// only 2xx responses.
func (c *Client) execute(ctx context.Context, req *Request) (*http.Response, error) {
	// The generation is taken first: a token read afterwards is at least as
	// new as that generation, so a 401 never restarts a finished refresh.
	gen := c.generation()
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.SkipRefresh {
		return c.checkStatus(resp)
	}
	closeBody(resp)

	c.logger.Debug(ctx, "request unauthorized, refreshing session", "method", req.Method, "path", req.Path)

	token, err = c.refreshSince(ctx, gen)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	return c.checkStatus(resp)
}

func (c *Client) send(ctx context.Context, req *Request, token string) (*http.Response, error) {
	id := uuid.NewString()
	ctx = logging.ContextWith(ctx, "request_id", id)

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(RequestIDHeader, id)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn(ctx, "request failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, req.Method, req.Path, err)
	}
	c.logger.Debug(ctx, "response", "method", req.Method, "path", req.Path, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	rel := &url.URL{Path: req.Path}
	if len(req.Query) > 0 {
		rel.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := req.Body()
		if err != nil {
			return nil, fmt.Errorf("build request body: %w", err)
		}
		body = b
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(rel).String(), body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	return httpReq, nil
}

func (c *Client) checkStatus(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, readError(resp)
}

// readError consumes and closes resp.Body, producing an *APIError when the
// body is the server's structured error and a *StatusError otherwise.
func readError(resp *http.Response) error {
	defer closeBody(resp)

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		StatusCode *int    `json:"statusCode"`
		ErrorCode  *int    `json:"errorCode"`
		Message    *string `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err == nil && (body.Message != nil || body.ErrorCode != nil) {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if body.StatusCode != nil && *body.StatusCode != 0 {
			apiErr.StatusCode = *body.StatusCode
		}
		if body.ErrorCode != nil {
			apiErr.ErrorCode = *body.ErrorCode
		}
		if body.Message != nil {
			apiErr.Message = *body.Message
		}
		return apiErr
	}

	text := strings.TrimSpace(string(b))
	if len(text) > 512 {
		text = text[:512]
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: text}
}

func decodeInto(r io.Reader, path string, dest any) error {
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	if v, ok := dest.(Validator); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
