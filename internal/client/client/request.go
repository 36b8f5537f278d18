package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

// BodyFunc produces a fresh request body. It is called once per attempt so
// that a request can be replayed after a token refresh.
type BodyFunc func() (io.Reader, error)

// Request describes one logical API call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        BodyFunc
	ContentType string

	// SkipRefresh returns a 401 to the caller instead of starting the
	// refresh protocol. Used by login and registration.
	SkipRefresh bool
}

// JSONBody encodes v once and serves the bytes on every attempt.
func JSONBody(v any) (BodyFunc, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return func() (io.Reader, error) { return bytes.NewReader(b), nil }, nil
}

// NewJSONRequest builds a request with a JSON body.
func NewJSONRequest(method, path string, v any) (*Request, error) {
	body, err := JSONBody(v)
	if err != nil {
		return nil, err
	}
	return &Request{Method: method, Path: path, Body: body, ContentType: "application/json"}, nil
}
