// internal/currency/fixer.go
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/clock"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
)

const (
	fixerBaseURL       = "https://data.fixer.io/api"
	fixerCacheDuration = 24 * time.Hour
)

// FixerProvider resolves rates from the fixer.io paid API. Like the ECB
// provider it caches EUR-based daily tables and falls back to the last
// cached table when a refetch fails.
type FixerProvider struct {
	client *httpclient.Client
	apiKey string
	cache  *snapshotCache
	logger *zap.Logger
}

// NewFixerProvider creates a provider against the fixer.io API.
func NewFixerProvider(apiKey string, logger *zap.Logger) *FixerProvider {
	endpoint := httpclient.Endpoint{
		BaseURL:           fixerBaseURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
	}
	client := httpclient.NewClient(endpoint, httpclient.DefaultRetryPolicy(), logger)
	return NewFixerProviderWithClient(client, apiKey, clock.New(), logger)
}

// NewFixerProviderWithClient creates a provider with an explicit transport
// and clock.
func NewFixerProviderWithClient(client *httpclient.Client, apiKey string, clk clock.Clock, logger *zap.Logger) *FixerProvider {
	return &FixerProvider{
		client: client,
		apiKey: apiKey,
		cache:  newSnapshotCache(fixerCacheDuration, clk),
		logger: logger,
	}
}

func (p *FixerProvider) Name() string { return "fixer" }

func (p *FixerProvider) GetRate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rates, err := p.fetchRates(ctx, asOf)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return crossRate(rates, from, to, p.Name())
}

// fixerResponse is the rate envelope. Rates arrive as json.Number so they
// reach decimal without a float64 detour.
type fixerResponse struct {
	Success bool                   `json:"success"`
	Rates   map[string]json.Number `json:"rates"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

func (p *FixerProvider) fetchRates(ctx context.Context, asOf time.Time) (map[string]decimal.Decimal, error) {
	// fixer serves historical tables at /YYYY-MM-DD and current at /latest.
	path := "/latest"
	cacheKey := "latest"
	if !asOf.IsZero() {
		cacheKey = asOf.Format("2006-01-02")
		path = "/" + cacheKey
	}

	if rates, ok := p.cache.get(cacheKey); ok {
		p.logger.Debug("rate cache hit", zap.String("provider", p.Name()), zap.String("key", cacheKey))
		return rates, nil
	}

	query := url.Values{}
	query.Set("access_key", p.apiKey)
	query.Set("base", BaseCurrency)

	resp, err := p.client.Get(ctx, path, query, nil)
	if err != nil {
		if rates, ok := p.cache.getStale(cacheKey); ok {
			p.logger.Warn("using stale fixer rate cache after fetch failure",
				zap.String("key", cacheKey), zap.Error(err))
			return rates, nil
		}
		return nil, fmt.Errorf("failed to fetch fixer rates: %w", err)
	}

	var envelope fixerResponse
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse fixer response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("fixer returned error %d (%s)", envelope.Error.Code, envelope.Error.Type)
	}

	rates := make(map[string]decimal.Decimal, len(envelope.Rates))
	for code, raw := range envelope.Rates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			return nil, fmt.Errorf("invalid fixer rate for %s: %w", code, err)
		}
		rates[code] = rate
	}

	p.cache.set(cacheKey, rates)
	p.logger.Info("fetched exchange rates from fixer",
		zap.Int("currencies", len(rates)), zap.String("key", cacheKey))

	return rates, nil
}
