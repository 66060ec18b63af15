// internal/currency/provider.go
package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BaseCurrency is the reference currency all provider rate tables are
// expressed against.
const BaseCurrency = "EUR"

// ErrUnsupportedCurrency is wrapped by provider errors for currency codes
// missing from the provider's table.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Provider resolves an exchange rate for a currency pair on a given date.
// A zero asOf means "latest". Implementations are safe for concurrent use
// and are constructed once per process from configuration.
type Provider interface {
	GetRate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
	Name() string
}

// Options selects and configures the process-wide provider.
type Options struct {
	// Name is one of "ecb", "fixer", "manual".
	Name string
	// FixerAPIKey is required for the fixer provider.
	FixerAPIKey string
	// ManualRates maps currency code to its EUR-based rate, required for
	// the manual provider. Values are decimal strings, e.g. "1.10".
	ManualRates map[string]string
}

// NewProvider constructs the configured exchange rate provider.
func NewProvider(opts Options, logger *zap.Logger) (Provider, error) {
	switch opts.Name {
	case "ecb":
		return NewECBProvider(logger), nil
	case "fixer":
		if opts.FixerAPIKey == "" {
			return nil, errors.New("fixer provider selected but no API key configured")
		}
		return NewFixerProvider(opts.FixerAPIKey, logger), nil
	case "manual":
		if len(opts.ManualRates) == 0 {
			return nil, errors.New("manual provider selected but no rates configured")
		}
		return NewManualProvider(opts.ManualRates)
	default:
		return nil, fmt.Errorf("unknown exchange rate provider: %q", opts.Name)
	}
}

func unsupportedCurrency(provider, code string) error {
	return fmt.Errorf("%w: %s not available from %s", ErrUnsupportedCurrency, code, provider)
}

// crossRate computes the from->to rate from an EUR-based table. Callers
// handle the identity pair before consulting the table.
func crossRate(rates map[string]decimal.Decimal, from, to, provider string) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)

	if from == BaseCurrency {
		rate, ok := rates[to]
		if !ok {
			return decimal.Decimal{}, unsupportedCurrency(provider, to)
		}
		return rate, nil
	}

	if to == BaseCurrency {
		rate, ok := rates[from]
		if !ok {
			return decimal.Decimal{}, unsupportedCurrency(provider, from)
		}
		return one.Div(rate), nil
	}

	fromRate, ok := rates[from]
	if !ok {
		return decimal.Decimal{}, unsupportedCurrency(provider, from)
	}
	toRate, ok := rates[to]
	if !ok {
		return decimal.Decimal{}, unsupportedCurrency(provider, to)
	}

	// from -> EUR -> to
	return toRate.Div(fromRate), nil
}
