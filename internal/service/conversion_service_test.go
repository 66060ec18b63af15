// internal/service/conversion_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/currency"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/idempotency"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/metrics"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/models"
)

func newTestConversionService(t *testing.T) *ConversionService {
	t.Helper()

	provider, err := currency.NewManualProvider(map[string]string{
		"USD": "1.10",
		"GBP": "0.88",
	})
	require.NoError(t, err)

	log := zap.NewNop()
	store := idempotency.NewMemoryStore(time.Hour, log)
	m := metrics.New(prometheus.NewRegistry())

	return NewConversionService(provider, store, nil, m, log)
}

func TestConvert(t *testing.T) {
	svc := newTestConversionService(t)

	resp, err := svc.Convert(context.Background(), &models.ConversionRequest{
		Amount:       decimal.RequireFromString("100.00"),
		FromCurrency: "USD",
		ToCurrency:   "EUR",
	})
	require.NoError(t, err)

	assert.Equal(t, "90.91", resp.ConvertedAmount.String())
	assert.Equal(t, "USD", resp.FromCurrency)
	assert.Equal(t, "EUR", resp.ToCurrency)
	assert.Equal(t, "manual", resp.RateSource)
	assert.NotEmpty(t, resp.ConversionID)
}

func TestConvertRejectsNonPositiveAmounts(t *testing.T) {
	svc := newTestConversionService(t)

	for _, amount := range []string{"0", "-1.50"} {
		_, err := svc.Convert(context.Background(), &models.ConversionRequest{
			Amount:       decimal.RequireFromString(amount),
			FromCurrency: "USD",
			ToCurrency:   "EUR",
		})
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %s", amount)
	}
}

func TestConvertRejectsBadDate(t *testing.T) {
	svc := newTestConversionService(t)

	_, err := svc.Convert(context.Background(), &models.ConversionRequest{
		Amount:       decimal.RequireFromString("1.00"),
		FromCurrency: "USD",
		ToCurrency:   "EUR",
		Date:         "15.01.2026",
	})
	assert.Error(t, err)
}

func TestConvertUnsupportedCurrency(t *testing.T) {
	svc := newTestConversionService(t)

	_, err := svc.Convert(context.Background(), &models.ConversionRequest{
		Amount:       decimal.RequireFromString("1.00"),
		FromCurrency: "XXX",
		ToCurrency:   "EUR",
	})
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
}

func TestGetRate(t *testing.T) {
	svc := newTestConversionService(t)

	rate, err := svc.GetRate(context.Background(), "EUR", "GBP", "")
	require.NoError(t, err)
	assert.Equal(t, "0.88", rate.Rate.String())
	assert.Equal(t, "manual", rate.Source)
}

func TestGetHistoricalRatesWithoutDatabase(t *testing.T) {
	svc := newTestConversionService(t)

	_, err := svc.GetHistoricalRates(context.Background(), "EUR", "USD", 30)
	assert.Error(t, err)
}

func TestGetSupportedCurrencies(t *testing.T) {
	svc := newTestConversionService(t)

	currencies := svc.GetSupportedCurrencies()
	assert.Contains(t, currencies, "EUR")
	assert.Contains(t, currencies, "USD")
	assert.NotEmpty(t, currencies)
}

func TestSweepIdempotencyKeys(t *testing.T) {
	svc := newTestConversionService(t)

	removed, err := svc.SweepIdempotencyKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
