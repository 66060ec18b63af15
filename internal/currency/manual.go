// internal/currency/manual.go
package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ManualProvider serves rates from a static EUR-based table supplied at
// construction. Useful for fixed-rate bookkeeping and tests. Lookups are
// pure in-memory reads.
type ManualProvider struct {
	rates map[string]decimal.Decimal
}

// NewManualProvider parses the configured code->rate table. Rates are
// decimal strings relative to EUR, e.g. {"USD": "1.10"}.
func NewManualProvider(rates map[string]string) (*ManualProvider, error) {
	parsed := make(map[string]decimal.Decimal, len(rates))
	for code, raw := range rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid manual rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("manual rate for %s must be positive, got %s", code, raw)
		}
		parsed[code] = rate
	}
	return &ManualProvider{rates: parsed}, nil
}

func (p *ManualProvider) Name() string { return "manual" }

func (p *ManualProvider) GetRate(_ context.Context, from, to string, _ time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	return crossRate(p.rates, from, to, p.Name())
}
