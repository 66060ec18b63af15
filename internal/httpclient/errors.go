// internal/httpclient/errors.go
package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted wraps the last transient failure once the retry
// budget for a logical call is spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// APIError is returned for any non-2xx response that is neither a rate
// limit nor an authentication failure. It carries the status code and the
// raw response body so callers can diagnose the remote complaint.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("api error: HTTP %d: %s", e.StatusCode, truncate(string(e.Body), 256))
	}
	return fmt.Sprintf("api error: HTTP %d", e.StatusCode)
}

// Decode unmarshals the error body into v, for callers that know the
// remote error envelope.
func (e *APIError) Decode(v interface{}) error {
	if len(e.Body) == 0 {
		return errors.New("empty error body")
	}
	return json.Unmarshal(e.Body, v)
}

// AuthError is returned for HTTP 401/403. It is never retried so callers
// can trigger a credential refresh instead.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: HTTP %d: %s", e.StatusCode, truncate(e.Body, 256))
}

// RateLimitError records an HTTP 429 and the wait the remote asked for.
// It surfaces only when the attempt budget runs out while rate limited.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: HTTP 429, retry after %s", e.RetryAfter)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
