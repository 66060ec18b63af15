// internal/marketplace/client.go
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
)

// Config describes the marketplace endpoint and OAuth2 credentials.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	ShopID            int64
	ClientID          string
	ClientSecret      string
	RefreshToken      string
}

// Client reads financial records (orders, payouts, ledger entries) from
// the marketplace API. All calls go through the shared retrying transport;
// an expired access token is refreshed once and the call repeated.
type Client struct {
	http   *httpclient.Client
	cfg    Config
	logger *zap.Logger

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a marketplace client with its own rate-limited
// transport per the endpoint config.
func NewClient(cfg Config, policy httpclient.RetryPolicy, logger *zap.Logger) *Client {
	endpoint := httpclient.Endpoint{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	return NewClientWithTransport(httpclient.NewClient(endpoint, policy, logger), cfg, logger)
}

// NewClientWithTransport creates a client over an existing transport.
func NewClientWithTransport(transport *httpclient.Client, cfg Config, logger *zap.Logger) *Client {
	return &Client{
		http:   transport,
		cfg:    cfg,
		logger: logger,
	}
}

// refreshAccessToken exchanges the long-lived refresh token for a fresh
// access token.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	c.logger.Info("refreshing marketplace access token")

	body := map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"refresh_token": c.cfg.RefreshToken,
	}

	resp, err := c.http.Post(ctx, "/public/oauth/token", body, nil)
	if err != nil {
		return fmt.Errorf("failed to refresh access token: %w", err)
	}

	var token tokenResponse
	if err := resp.DecodeJSON(&token); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return errors.New("token response contained no access token")
	}

	c.mu.Lock()
	c.accessToken = token.AccessToken
	c.mu.Unlock()

	return nil
}

func (c *Client) headers(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	if token == "" {
		if err := c.refreshAccessToken(ctx); err != nil {
			return nil, err
		}
		c.mu.Lock()
		token = c.accessToken
		c.mu.Unlock()
	}

	return map[string]string{
		"Authorization": "Bearer " + token,
		"x-api-key":     c.cfg.ClientID,
	}, nil
}

// get performs an authenticated GET, refreshing the token once when the
// remote rejects it.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*httpclient.Response, error) {
	headers, err := c.headers(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, path, query, headers)

	var authErr *httpclient.AuthError
	if errors.As(err, &authErr) {
		c.logger.Warn("marketplace rejected access token, refreshing",
			zap.Int("status", authErr.StatusCode))
		if refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
			return nil, refreshErr
		}
		headers, err = c.headers(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = c.http.Get(ctx, path, query, headers)
	}

	return resp, err
}

// GetShop returns the configured shop.
func (c *Client) GetShop(ctx context.Context) (*Shop, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/application/shops/%d", c.cfg.ShopID), nil)
	if err != nil {
		return nil, err
	}

	var shop Shop
	if err := resp.DecodeJSON(&shop); err != nil {
		return nil, fmt.Errorf("failed to parse shop: %w", err)
	}
	return &shop, nil
}

// ListOrdersParams bound the receipt listing.
type ListOrdersParams struct {
	Limit      int
	Offset     int
	MinCreated time.Time
	MaxCreated time.Time
}

// ListOrders returns one page of the shop's receipts.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) (*Page[Order], error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("offset", strconv.Itoa(params.Offset))
	if !params.MinCreated.IsZero() {
		query.Set("min_created", strconv.FormatInt(params.MinCreated.Unix(), 10))
	}
	if !params.MaxCreated.IsZero() {
		query.Set("max_created", strconv.FormatInt(params.MaxCreated.Unix(), 10))
	}

	resp, err := c.get(ctx, fmt.Sprintf("/application/shops/%d/receipts", c.cfg.ShopID), query)
	if err != nil {
		return nil, err
	}

	var page Page[Order]
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, fmt.Errorf("failed to parse orders: %w", err)
	}
	return &page, nil
}

// ListPayouts returns one page of the shop's bank payouts.
func (c *Client) ListPayouts(ctx context.Context, limit, offset int) (*Page[Payout], error) {
	if limit <= 0 {
		limit = 100
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	resp, err := c.get(ctx, fmt.Sprintf("/application/shops/%d/payment-account/payouts", c.cfg.ShopID), query)
	if err != nil {
		return nil, err
	}

	var page Page[Payout]
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, fmt.Errorf("failed to parse payouts: %w", err)
	}
	return &page, nil
}

// ListLedgerEntries returns fees, refunds and adjustments booked on the
// payment ledger between minCreated and maxCreated.
func (c *Client) ListLedgerEntries(ctx context.Context, minCreated, maxCreated time.Time, limit, offset int) (*Page[LedgerEntry], error) {
	if limit <= 0 {
		limit = 100
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	if !minCreated.IsZero() {
		query.Set("min_created", strconv.FormatInt(minCreated.Unix(), 10))
	}
	if !maxCreated.IsZero() {
		query.Set("max_created", strconv.FormatInt(maxCreated.Unix(), 10))
	}

	resp, err := c.get(ctx, fmt.Sprintf("/application/shops/%d/payment-account/ledger-entries", c.cfg.ShopID), query)
	if err != nil {
		return nil, err
	}

	var page Page[LedgerEntry]
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, fmt.Errorf("failed to parse ledger entries: %w", err)
	}
	return &page, nil
}
