// internal/accounting/types.go
package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

type Contact struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CustomerNumber string `json:"customerNumber"`
	Email          string `json:"email"`
}

type ContactInput struct {
	Name           string
	CustomerNumber string
	Email          string
	Street         string
	Zip            string
	City           string
	CountryID      string
}

// InvoicePosition is one line item on an invoice. Price is the net unit
// price; the accounting system derives gross from the tax rate.
type InvoicePosition struct {
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	TaxRate  decimal.Decimal
	UnitName string
}

type InvoiceInput struct {
	ContactID     string
	InvoiceDate   time.Time
	DeliveryDate  time.Time
	Currency      string
	TaxRate       decimal.Decimal
	TaxText       string
	Header        string
	HeadText      string
	FootText      string
	PaymentMethod string
	Positions     []InvoicePosition
}

type Invoice struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoiceNumber"`
	Status        string `json:"status"`
	// DryRun marks documents that were logged instead of created.
	DryRun bool `json:"-"`
}

// VoucherInput books an expense or revenue without a customer-facing
// document, used for marketplace fees and payout reconciliation.
type VoucherInput struct {
	Description string
	VoucherDate time.Time
	Amount      decimal.Decimal
	TaxRate     decimal.Decimal
	CreditDebit string
	Currency    string
}

type Voucher struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	DryRun bool   `json:"-"`
}
