// internal/service/conversion_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/currency"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/idempotency"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/metrics"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/models"
)

// ErrInvalidAmount is returned for non-positive conversion amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// HistoryRepository records rates and conversions for audit.
type HistoryRepository interface {
	SaveRate(ctx context.Context, rate *models.ExchangeRate) error
	SaveConversion(ctx context.Context, conversion *models.Conversion) error
	GetRateHistory(ctx context.Context, from, to string, since time.Time) ([]*models.ExchangeRate, error)
}

// ConversionService orchestrates rate lookup, decimal conversion math and
// history persistence behind the ops API.
type ConversionService struct {
	provider  currency.Provider
	converter *currency.Converter
	store     idempotency.Store
	history   HistoryRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewConversionService(provider currency.Provider, store idempotency.Store, history HistoryRepository, m *metrics.Metrics, logger *zap.Logger) *ConversionService {
	return &ConversionService{
		provider:  provider,
		converter: currency.NewConverter(provider, logger),
		store:     store,
		history:   history,
		metrics:   m,
		logger:    logger,
	}
}

// Convert converts an amount between currencies at the configured
// provider's rate and records the conversion.
func (s *ConversionService) Convert(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	asOf, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	rate, err := s.provider.GetRate(ctx, req.FromCurrency, req.ToCurrency, asOf)
	if err != nil {
		s.metrics.ConversionErrorsTotal.WithLabelValues(req.FromCurrency, req.ToCurrency).Inc()
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	s.metrics.RateLookupsTotal.WithLabelValues(s.provider.Name()).Inc()

	converted, err := s.converter.Convert(ctx, req.Amount, req.FromCurrency, req.ToCurrency, asOf)
	if err != nil {
		s.metrics.ConversionErrorsTotal.WithLabelValues(req.FromCurrency, req.ToCurrency).Inc()
		return nil, err
	}

	now := time.Now()
	response := &models.ConversionResponse{
		OriginalAmount:  req.Amount,
		ConvertedAmount: converted,
		FromCurrency:    req.FromCurrency,
		ToCurrency:      req.ToCurrency,
		ExchangeRate:    rate,
		RateSource:      s.provider.Name(),
		RateTimestamp:   now,
		ConversionID:    uuid.New().String(),
	}
	s.metrics.ConversionsTotal.WithLabelValues(req.FromCurrency, req.ToCurrency).Inc()

	if s.history != nil {
		conversion := &models.Conversion{
			ID:              response.ConversionID,
			FromCurrency:    req.FromCurrency,
			ToCurrency:      req.ToCurrency,
			OriginalAmount:  req.Amount,
			ConvertedAmount: converted,
			ExchangeRate:    rate,
			CreatedAt:       now,
		}
		if err := s.history.SaveConversion(ctx, conversion); err != nil {
			s.logger.Error("failed to save conversion", zap.Error(err))
		}
	}

	return response, nil
}

// GetRate resolves and records the current rate for a pair.
func (s *ConversionService) GetRate(ctx context.Context, from, to, date string) (*models.ExchangeRate, error) {
	asOf, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	rate, err := s.provider.GetRate(ctx, from, to, asOf)
	if err != nil {
		return nil, err
	}
	s.metrics.RateLookupsTotal.WithLabelValues(s.provider.Name()).Inc()

	record := &models.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Timestamp:    time.Now(),
		Source:       s.provider.Name(),
	}

	if s.history != nil {
		if err := s.history.SaveRate(ctx, record); err != nil {
			s.logger.Error("failed to save rate to database", zap.Error(err))
		}
	}

	return record, nil
}

// GetHistoricalRates returns persisted rates for a pair over the last days.
func (s *ConversionService) GetHistoricalRates(ctx context.Context, from, to string, days int) ([]*models.ExchangeRate, error) {
	if s.history == nil {
		return nil, errors.New("rate history persistence is not configured")
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.history.GetRateHistory(ctx, from, to, since)
}

// GetSupportedCurrencies returns the currency codes the sync handles.
func (s *ConversionService) GetSupportedCurrencies() []string {
	return []string{
		"EUR", "USD", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY",
		"SEK", "NZD", "MXN", "SGD", "HKD", "NOK", "KRW", "TRY",
		"INR", "BRL", "ZAR", "DKK", "PLN", "CZK", "HUF", "RON",
	}
}

// SweepIdempotencyKeys removes expired idempotency entries and reports
// how many were removed.
func (s *ConversionService) SweepIdempotencyKeys(ctx context.Context) (int, error) {
	removed, err := s.store.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.IdempotencySweptTotal.Add(float64(removed))
	return removed, nil
}

func parseDate(date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, nil
	}
	asOf, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}
	return asOf, nil
}
