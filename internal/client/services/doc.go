// Package services wraps the backend's REST endpoints for the terminal
// client. Services are thin: they build requests, call the HTTP client core
// and hand back validated models. Session bookkeeping that has to follow a
// call (storing or clearing tokens) lives here too.
package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
)

// API is the part of *client.Client the services depend on.
type API interface {
	Do(ctx context.Context, req *client.Request, dest any) error
	Stream(ctx context.Context, req *client.Request) (*http.Response, error)
}

var _ API = (*client.Client)(nil)
