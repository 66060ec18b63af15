// internal/currency/math.go
package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultScale is the decimal precision for the base currency.
const DefaultScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Round applies commercial rounding (round half away from zero) to the
// given number of decimal places. Accounting documents require this over
// banker's rounding.
func Round(amount decimal.Decimal, scale int32) decimal.Decimal {
	return amount.Round(scale)
}

// RoundCurrency rounds to the default 2-decimal currency scale.
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return Round(amount, DefaultScale)
}

// NetFromGross derives the net amount from a gross amount and a tax rate
// in percent: net = gross / (1 + rate/100), rounded to cents.
//
// Example: NetFromGross(119.00, 19) == 100.00
func NetFromGross(gross, taxRatePercent decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(taxRatePercent.Div(hundred))
	return RoundCurrency(gross.Div(divisor))
}

// GrossFromNet derives the gross amount from a net amount and a tax rate
// in percent: gross = net * (1 + rate/100), rounded to cents.
//
// Example: GrossFromNet(100.00, 19) == 119.00
func GrossFromNet(net, taxRatePercent decimal.Decimal) decimal.Decimal {
	multiplier := decimal.NewFromInt(1).Add(taxRatePercent.Div(hundred))
	return RoundCurrency(net.Mul(multiplier))
}

// TaxAmount computes the tax portion for a net amount: net * rate/100,
// rounded to cents.
func TaxAmount(net, taxRatePercent decimal.Decimal) decimal.Decimal {
	return RoundCurrency(net.Mul(taxRatePercent.Div(hundred)))
}

// Converter converts amounts across currencies using the process-wide
// rate provider, normalizing results to the currency scale.
type Converter struct {
	provider Provider
	logger   *zap.Logger
}

func NewConverter(provider Provider, logger *zap.Logger) *Converter {
	return &Converter{provider: provider, logger: logger}
}

// Provider exposes the underlying rate provider.
func (c *Converter) Provider() Provider {
	return c.provider
}

// Convert converts amount from one currency to another at the rate valid
// on asOf (zero time means latest), rounded to cents. The identity pair
// returns the amount unchanged without rounding.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, err := c.provider.GetRate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Decimal{}, err
	}

	converted := RoundCurrency(amount.Mul(rate))
	c.logger.Debug("converted amount",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("rate", rate.String()),
		zap.String("converted", converted.String()))

	return converted, nil
}
