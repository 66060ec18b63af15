// internal/currency/ecb.go
package currency

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/clock"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
)

const (
	ecbBaseURL       = "https://www.ecb.europa.eu/stats/eurofxref"
	ecbDailyRatePath = "/eurofxref-daily.xml"
	ecbCacheDuration = 24 * time.Hour
)

// ECBProvider fetches the European Central Bank's daily EUR reference rate
// table. Free to use, no API key required. Tables are cached for 24 hours
// keyed by request date; when a refetch fails, the most recent cached table
// is used instead.
type ECBProvider struct {
	client *httpclient.Client
	cache  *snapshotCache
	logger *zap.Logger
}

// NewECBProvider creates a provider against the public ECB endpoint.
func NewECBProvider(logger *zap.Logger) *ECBProvider {
	endpoint := httpclient.Endpoint{
		BaseURL:           ecbBaseURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
	}
	client := httpclient.NewClient(endpoint, httpclient.DefaultRetryPolicy(), logger)
	return NewECBProviderWithClient(client, clock.New(), logger)
}

// NewECBProviderWithClient creates a provider with an explicit transport
// and clock, used by tests and by callers that share a transport.
func NewECBProviderWithClient(client *httpclient.Client, clk clock.Clock, logger *zap.Logger) *ECBProvider {
	return &ECBProvider{
		client: client,
		cache:  newSnapshotCache(ecbCacheDuration, clk),
		logger: logger,
	}
}

func (p *ECBProvider) Name() string { return "ecb" }

// GetRate resolves the from->to rate. The identity pair returns exactly 1
// without touching the network or the cache.
func (p *ECBProvider) GetRate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rates, err := p.fetchRates(ctx, asOf)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return crossRate(rates, from, to, p.Name())
}

func (p *ECBProvider) fetchRates(ctx context.Context, asOf time.Time) (map[string]decimal.Decimal, error) {
	cacheKey := "latest"
	if !asOf.IsZero() {
		cacheKey = asOf.Format("2006-01-02")
	}

	if rates, ok := p.cache.get(cacheKey); ok {
		p.logger.Debug("rate cache hit", zap.String("provider", p.Name()), zap.String("key", cacheKey))
		return rates, nil
	}

	resp, err := p.client.Get(ctx, ecbDailyRatePath, nil, nil)
	if err != nil {
		if rates, ok := p.cache.getStale(cacheKey); ok {
			p.logger.Warn("using stale ECB rate cache after fetch failure",
				zap.String("key", cacheKey), zap.Error(err))
			return rates, nil
		}
		return nil, fmt.Errorf("failed to fetch ECB rates: %w", err)
	}

	rates, err := parseECBRates(resp.Body)
	if err != nil {
		if stale, ok := p.cache.getStale(cacheKey); ok {
			p.logger.Warn("using stale ECB rate cache after parse failure",
				zap.String("key", cacheKey), zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	p.cache.set(cacheKey, rates)
	p.logger.Info("fetched exchange rates from ECB",
		zap.Int("currencies", len(rates)), zap.String("key", cacheKey))

	return rates, nil
}

// ecbEnvelope matches the eurofxref XML: rate cubes are nested three
// levels deep as <Cube><Cube time=...><Cube currency=... rate=.../>.
type ecbEnvelope struct {
	Cubes []struct {
		Currency string `xml:"currency,attr"`
		Rate     string `xml:"rate,attr"`
	} `xml:"Cube>Cube>Cube"`
}

func parseECBRates(body []byte) (map[string]decimal.Decimal, error) {
	var envelope ecbEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse ECB rate table: %w", err)
	}
	if len(envelope.Cubes) == 0 {
		return nil, fmt.Errorf("ECB rate table contained no rates")
	}

	rates := make(map[string]decimal.Decimal, len(envelope.Cubes))
	for _, cube := range envelope.Cubes {
		rate, err := decimal.NewFromString(cube.Rate)
		if err != nil {
			return nil, fmt.Errorf("invalid ECB rate for %s: %w", cube.Currency, err)
		}
		rates[cube.Currency] = rate
	}

	return rates, nil
}
