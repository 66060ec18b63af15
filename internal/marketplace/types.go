// internal/marketplace/types.go
package marketplace

import (
	"github.com/shopspring/decimal"
)

// Amount is the marketplace's wire format for money: an integer amount
// with a divisor, e.g. {amount: 1999, divisor: 100} for 19.99.
type Amount struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// Decimal converts the wire amount into an exact decimal value.
func (a Amount) Decimal() decimal.Decimal {
	if a.Divisor == 0 {
		return decimal.NewFromInt(a.Amount)
	}
	return decimal.NewFromInt(a.Amount).Div(decimal.NewFromInt(a.Divisor))
}

type Shop struct {
	ShopID       int64  `json:"shop_id"`
	ShopName     string `json:"shop_name"`
	CurrencyCode string `json:"currency_code"`
	CreateDate   int64  `json:"create_date"`
}

// Order is a marketplace receipt: one customer checkout with its totals.
type Order struct {
	ReceiptID         int64  `json:"receipt_id"`
	Status            string `json:"status"`
	BuyerEmail        string `json:"buyer_email"`
	Name              string `json:"name"`
	CountryISO        string `json:"country_iso"`
	CreateTimestamp   int64  `json:"create_timestamp"`
	IsPaid            bool   `json:"is_paid"`
	IsShipped         bool   `json:"is_shipped"`
	GrandTotal        Amount `json:"grandtotal"`
	Subtotal          Amount `json:"subtotal"`
	TotalTaxCost      Amount `json:"total_tax_cost"`
	TotalShippingCost Amount `json:"total_shipping_cost"`
}

// Payout is a marketplace disbursement to the seller's bank account.
type Payout struct {
	PayoutID     int64  `json:"payout_id"`
	Status       string `json:"status"`
	Amount       Amount `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	PaymentDate  int64  `json:"payment_date"`
}

// LedgerEntry is one fee, refund or adjustment on the payment ledger.
type LedgerEntry struct {
	EntryID     int64  `json:"entry_id"`
	LedgerType  string `json:"ledger_type"`
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
	CreateDate  int64  `json:"create_date"`
}

// Page wraps a paginated list response.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
