// internal/handler/integration_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/accounting"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/marketplace"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/metrics"
)

// MarketplaceAPI is the slice of the marketplace client the ops API reads.
type MarketplaceAPI interface {
	GetShop(ctx context.Context) (*marketplace.Shop, error)
	ListOrders(ctx context.Context, params marketplace.ListOrdersParams) (*marketplace.Page[marketplace.Order], error)
	ListPayouts(ctx context.Context, limit, offset int) (*marketplace.Page[marketplace.Payout], error)
	ListLedgerEntries(ctx context.Context, minCreated, maxCreated time.Time, limit, offset int) (*marketplace.Page[marketplace.LedgerEntry], error)
}

// ContactFinder is the slice of the accounting client the ops API reads.
type ContactFinder interface {
	FindContactByEmail(ctx context.Context, email string) (*accounting.Contact, error)
}

// IntegrationHandler exposes raw reads from both remote systems for
// inspection and connectivity checks. It performs no mapping between the
// two; workflow engines consuming this data live outside this service.
type IntegrationHandler struct {
	marketplace MarketplaceAPI
	accounting  ContactFinder
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewIntegrationHandler(mp MarketplaceAPI, acc ContactFinder, m *metrics.Metrics, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		marketplace: mp,
		accounting:  acc,
		metrics:     m,
		logger:      logger,
	}
}

func (h *IntegrationHandler) GetShop(c *gin.Context) {
	shop, err := h.marketplace.GetShop(c.Request.Context())
	if err != nil {
		h.remoteError(c, "failed to fetch shop", err)
		return
	}
	h.metrics.MarketplaceReadsTotal.WithLabelValues("shop").Inc()
	c.JSON(http.StatusOK, shop)
}

func (h *IntegrationHandler) ListOrders(c *gin.Context) {
	params := marketplace.ListOrdersParams{
		Limit:  queryInt(c, "limit", 25),
		Offset: queryInt(c, "offset", 0),
	}

	var err error
	if params.MinCreated, err = queryDate(c, "min_created"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.MaxCreated, err = queryDate(c, "max_created"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.marketplace.ListOrders(c.Request.Context(), params)
	if err != nil {
		h.remoteError(c, "failed to list orders", err)
		return
	}
	h.metrics.MarketplaceReadsTotal.WithLabelValues("orders").Inc()
	c.JSON(http.StatusOK, page)
}

func (h *IntegrationHandler) ListPayouts(c *gin.Context) {
	page, err := h.marketplace.ListPayouts(c.Request.Context(), queryInt(c, "limit", 25), queryInt(c, "offset", 0))
	if err != nil {
		h.remoteError(c, "failed to list payouts", err)
		return
	}
	h.metrics.MarketplaceReadsTotal.WithLabelValues("payouts").Inc()
	c.JSON(http.StatusOK, page)
}

func (h *IntegrationHandler) ListLedgerEntries(c *gin.Context) {
	minCreated, err := queryDate(c, "min_created")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxCreated, err := queryDate(c, "max_created")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.marketplace.ListLedgerEntries(c.Request.Context(), minCreated, maxCreated,
		queryInt(c, "limit", 25), queryInt(c, "offset", 0))
	if err != nil {
		h.remoteError(c, "failed to list ledger entries", err)
		return
	}
	h.metrics.MarketplaceReadsTotal.WithLabelValues("ledger_entries").Inc()
	c.JSON(http.StatusOK, page)
}

func (h *IntegrationHandler) FindContact(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	contact, err := h.accounting.FindContactByEmail(c.Request.Context(), email)
	if err != nil {
		h.remoteError(c, "failed to look up contact", err)
		return
	}
	if contact == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no contact with that email"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// remoteError maps transport failures onto gateway statuses: auth problems
// are the operator's configuration to fix, everything else is the remote.
func (h *IntegrationHandler) remoteError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))

	var authErr *httpclient.AuthError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote rejected credentials"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": msg})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func queryDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}
