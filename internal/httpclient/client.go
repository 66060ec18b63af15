// internal/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/clock"
)

const (
	// maxResponseSize caps response bodies to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024
	// defaultRetryAfter is used when a 429 carries no usable Retry-After header
	defaultRetryAfter = 60 * time.Second
)

// Endpoint describes one remote system. It is immutable once the client
// owning it is constructed.
type Endpoint struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// RetryPolicy bounds the retry loop for transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Multiplier  float64
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy mirrors the production sync settings: three attempts,
// exponential backoff starting at one second, capped at five minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 1 * time.Second,
		Multiplier:  2,
		MaxBackoff:  300 * time.Second,
	}
}

// backoff returns the wait before the next attempt after the n-th
// consecutive transient failure (n starts at 1).
func (p RetryPolicy) backoff(n int) time.Duration {
	wait := time.Duration(float64(p.BaseBackoff) * math.Pow(p.Multiplier, float64(n-1)))
	if wait > p.MaxBackoff || wait < 0 {
		wait = p.MaxBackoff
	}
	return wait
}

// Request is one logical HTTP exchange against an endpoint.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	// Body is JSON-encoded when non-nil.
	Body interface{}
	// IdempotencyKey, when set, is passed through as the Idempotency-Key
	// header so the remote system can deduplicate creates on its side.
	IdempotencyKey string
}

// Response is the outcome of a successful exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v interface{}) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Client executes requests against a single endpoint with rate limiting,
// retry with exponential backoff, and the error classification the sync
// workflows depend on. Safe for concurrent use.
type Client struct {
	endpoint Endpoint
	policy   RetryPolicy
	limiter  *Limiter
	http     *http.Client
	clock    clock.Clock
	logger   *zap.Logger
}

// NewClient creates a client for the given endpoint.
func NewClient(endpoint Endpoint, policy RetryPolicy, logger *zap.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		policy:   policy,
		limiter:  NewLimiter(endpoint.RequestsPerSecond),
		http:     &http.Client{Timeout: timeout},
		clock:    clock.New(),
		logger:   logger,
	}
}

// Do performs one logical exchange, retrying transient network failures
// per the retry policy and honoring Retry-After on HTTP 429. Authentication
// failures and other non-2xx statuses surface immediately.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	backoffStep := 0

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, req, attempt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}

			// Transient network failure: back off and retry.
			lastErr = err
			if attempt == c.policy.MaxAttempts {
				break
			}
			backoffStep++
			wait := c.policy.backoff(backoffStep)
			c.logger.Debug("transient failure, backing off",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
			if err := c.clock.Sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header)
			lastErr = &RateLimitError{RetryAfter: retryAfter}
			if attempt == c.policy.MaxAttempts {
				break
			}
			// Honor the remote's wait verbatim; this does not advance
			// the backoff sequence.
			c.logger.Warn("rate limited by remote",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Duration("retry_after", retryAfter))
			if err := c.clock.Sleep(ctx, retryAfter); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(resp.Body)}

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		default:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: resp.Body}
		}
	}

	return nil, fmt.Errorf("%s %s after %d attempts: %w: %w",
		req.Method, req.Path, c.policy.MaxAttempts, ErrRetriesExhausted, lastErr)
}

// attempt performs a single HTTP exchange without any retry handling.
func (c *Client) attempt(ctx context.Context, req *Request, attempt int) (*Response, error) {
	target := strings.TrimRight(c.endpoint.BaseURL, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	c.logger.Debug("request attempt",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("attempt", attempt))

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Headers: headers})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Headers: headers})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body, Headers: headers})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Headers: headers})
}

func parseRetryAfter(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
