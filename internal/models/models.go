// internal/models/models.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount in an ISO 4217 currency. Amounts are never
// represented as binary floating point anywhere in the sync pipeline.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type ConversionRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	FromCurrency string          `json:"from_currency" binding:"required,len=3"`
	ToCurrency   string          `json:"to_currency" binding:"required,len=3"`
	// Date selects a historical rate (YYYY-MM-DD); empty means latest.
	Date string `json:"date,omitempty"`
}

type ConversionResponse struct {
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	FromCurrency    string          `json:"from_currency"`
	ToCurrency      string          `json:"to_currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	RateSource      string          `json:"rate_source"`
	RateTimestamp   time.Time       `json:"rate_timestamp"`
	ConversionID    string          `json:"conversion_id"`
}

type ExchangeRate struct {
	FromCurrency string          `json:"from_currency" db:"from_currency"`
	ToCurrency   string          `json:"to_currency" db:"to_currency"`
	Rate         decimal.Decimal `json:"rate" db:"rate"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
	Source       string          `json:"source" db:"source"`
}

type Conversion struct {
	ID              string          `json:"id" db:"id"`
	FromCurrency    string          `json:"from_currency" db:"from_currency"`
	ToCurrency      string          `json:"to_currency" db:"to_currency"`
	OriginalAmount  decimal.Decimal `json:"original_amount" db:"original_amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount" db:"converted_amount"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate" db:"exchange_rate"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
