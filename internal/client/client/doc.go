// Package client is the HTTP core every backend call goes through.
//
// # Overview
//
// Client resolves request paths against the configured server URL, attaches
// the stored access token as a bearer header, and normalizes failures:
//  1. network failures and unstructured error bodies become ErrTransport
//     (*StatusError when a status is known);
//  2. structured bodies {statusCode, errorCode, message} become *APIError;
//  3. 2xx bodies that do not decode or fail Validate become *DecodeError
//     (ErrMalformedResponse).
//
// # Refresh and replay
//
// A 401 on a request that has not been retried yet triggers a token refresh.
// Only one refresh runs at a time; requests that hit 401 meanwhile wait for
// its outcome and are then replayed with the new token or fail with the
// refresh error (ErrRefreshFailed). A request is replayed at most once, so a
// second 401 is returned to the caller as is. The client never clears the
// stored tokens on refresh failure; that decision belongs to the session
// manager.
//
// All methods are safe for concurrent use and honor context cancellation. A
// caller whose context ends while waiting for a refresh returns ctx.Err()
// without affecting the refresh or the other waiters.
package client
