// internal/accounting/client.go
package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
)

// Config describes the accounting system endpoint.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	APIToken          string
	// DryRun logs create calls instead of sending them. No financial
	// document is created in dry-run mode.
	DryRun bool
}

// Client writes financial documents (invoices, vouchers, payments) to the
// accounting API. Every create accepts the caller's idempotency key and
// passes it through as the Idempotency-Key header, so a crash between the
// remote create and the local result store cannot duplicate a document on
// retry.
type Client struct {
	http   *httpclient.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates an accounting client with its own rate-limited
// transport per the endpoint config.
func NewClient(cfg Config, policy httpclient.RetryPolicy, logger *zap.Logger) *Client {
	endpoint := httpclient.Endpoint{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	return NewClientWithTransport(httpclient.NewClient(endpoint, policy, logger), cfg, logger)
}

// NewClientWithTransport creates a client over an existing transport.
func NewClientWithTransport(transport *httpclient.Client, cfg Config, logger *zap.Logger) *Client {
	return &Client{
		http:   transport,
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": c.cfg.APIToken,
	}
}

// objectsEnvelope is the accounting API's response wrapper.
type objectsEnvelope struct {
	Objects json.RawMessage `json:"objects"`
}

func decodeObjects(resp *httpclient.Response, v interface{}) error {
	var envelope objectsEnvelope
	if err := resp.DecodeJSON(&envelope); err != nil {
		return err
	}
	if len(envelope.Objects) == 0 {
		return fmt.Errorf("response contained no objects")
	}
	return json.Unmarshal(envelope.Objects, v)
}

// FindContactByEmail returns the first contact matching email, or nil.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*Contact, error) {
	query := url.Values{}
	query.Set("email", email)

	resp, err := c.http.Get(ctx, "/Contact", query, c.headers())
	if err != nil {
		return nil, err
	}

	var contacts []Contact
	if err := decodeObjects(resp, &contacts); err != nil {
		return nil, fmt.Errorf("failed to parse contacts: %w", err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// CreateContact creates a new customer contact.
func (c *Client) CreateContact(ctx context.Context, input ContactInput) (*Contact, error) {
	countryID := input.CountryID
	if countryID == "" {
		countryID = "1" // Germany
	}

	payload := map[string]interface{}{
		"name":           input.Name,
		"customerNumber": input.CustomerNumber,
		"email":          input.Email,
		"street":         input.Street,
		"zip":            input.Zip,
		"city":           input.City,
		"country": map[string]string{
			"id":         countryID,
			"objectName": "StaticCountry",
		},
		"category": map[string]string{
			"id":         "3", // Customer
			"objectName": "Category",
		},
	}

	resp, err := c.http.Post(ctx, "/Contact", payload, c.headers())
	if err != nil {
		return nil, err
	}

	var contact Contact
	if err := decodeObjects(resp, &contact); err != nil {
		return nil, fmt.Errorf("failed to parse created contact: %w", err)
	}
	return &contact, nil
}

// CreateInvoice creates an invoice. The accounting system assigns the
// invoice number from its configured sequence. idempotencyKey is passed
// through so the remote side deduplicates retried creates.
func (c *Client) CreateInvoice(ctx context.Context, input InvoiceInput, idempotencyKey string) (*Invoice, error) {
	positions := make([]map[string]interface{}, 0, len(input.Positions))
	for _, pos := range input.Positions {
		positions = append(positions, map[string]interface{}{
			"name":     pos.Name,
			"quantity": pos.Quantity,
			"price":    pos.Price,
			"taxRate":  pos.TaxRate,
			"unity": map[string]string{
				"id":         "1",
				"objectName": "Unity",
			},
		})
	}

	payload := map[string]interface{}{
		"invoice": map[string]interface{}{
			"invoiceNumber": nil, // assigned by the accounting system
			"contact": map[string]string{
				"id":         input.ContactID,
				"objectName": "Contact",
			},
			"invoiceDate":   input.InvoiceDate.Format("2006-01-02"),
			"deliveryDate":  input.DeliveryDate.Format("2006-01-02"),
			"status":        "200", // Open
			"invoiceType":   "RE",
			"currency":      input.Currency,
			"taxType":       "default",
			"taxText":       input.TaxText,
			"taxRate":       input.TaxRate,
			"header":        input.Header,
			"headText":      input.HeadText,
			"footText":      input.FootText,
			"paymentMethod": input.PaymentMethod,
		},
		"invoicePosSave": positions,
	}

	if c.cfg.DryRun {
		c.logger.Info("DRY RUN: would create invoice",
			zap.String("contact_id", input.ContactID),
			zap.String("idempotency_key", idempotencyKey),
			zap.Int("positions", len(input.Positions)))
		return &Invoice{DryRun: true}, nil
	}

	resp, err := c.http.Do(ctx, &httpclient.Request{
		Method:         "POST",
		Path:           "/Invoice/Factory/saveInvoice",
		Body:           payload,
		Headers:        c.headers(),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	var created struct {
		Invoice Invoice `json:"invoice"`
	}
	if err := decodeObjects(resp, &created); err != nil {
		return nil, fmt.Errorf("failed to parse created invoice: %w", err)
	}
	return &created.Invoice, nil
}

// CreateVoucher books a fee, refund or payout adjustment.
func (c *Client) CreateVoucher(ctx context.Context, input VoucherInput, idempotencyKey string) (*Voucher, error) {
	payload := map[string]interface{}{
		"voucher": map[string]interface{}{
			"voucherDate": input.VoucherDate.Format("2006-01-02"),
			"description": input.Description,
			"creditDebit": input.CreditDebit,
			"voucherType": "VOU",
			"currency":    input.Currency,
			"status":      "100", // Draft
		},
		"voucherPosSave": []map[string]interface{}{
			{
				"sumNet":  input.Amount,
				"taxRate": input.TaxRate,
				"comment": input.Description,
			},
		},
	}

	if c.cfg.DryRun {
		c.logger.Info("DRY RUN: would create voucher",
			zap.String("description", input.Description),
			zap.String("idempotency_key", idempotencyKey))
		return &Voucher{DryRun: true}, nil
	}

	resp, err := c.http.Do(ctx, &httpclient.Request{
		Method:         "POST",
		Path:           "/Voucher/Factory/saveVoucher",
		Body:           payload,
		Headers:        c.headers(),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	var created struct {
		Voucher Voucher `json:"voucher"`
	}
	if err := decodeObjects(resp, &created); err != nil {
		return nil, fmt.Errorf("failed to parse created voucher: %w", err)
	}
	return &created.Voucher, nil
}

// BookPayment marks an invoice as paid with the given amount on date.
func (c *Client) BookPayment(ctx context.Context, invoiceID string, amount string, date time.Time) error {
	payload := map[string]interface{}{
		"amount": amount,
		"date":   date.Format("2006-01-02"),
		"type":   "N", // normal booking
	}

	if c.cfg.DryRun {
		c.logger.Info("DRY RUN: would book payment",
			zap.String("invoice_id", invoiceID),
			zap.String("amount", amount))
		return nil
	}

	_, err := c.http.Put(ctx, fmt.Sprintf("/Invoice/%s/bookAmount", invoiceID), payload, c.headers())
	return err
}
