// internal/handler/integration_handler_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/accounting"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/marketplace"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/metrics"
)

type stubMarketplace struct {
	orders     []marketplace.Order
	lastParams marketplace.ListOrdersParams
	err        error
}

func (s *stubMarketplace) GetShop(context.Context) (*marketplace.Shop, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &marketplace.Shop{ShopID: 42, ShopName: "testshop"}, nil
}

func (s *stubMarketplace) ListOrders(_ context.Context, params marketplace.ListOrdersParams) (*marketplace.Page[marketplace.Order], error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastParams = params
	return &marketplace.Page[marketplace.Order]{Count: len(s.orders), Results: s.orders}, nil
}

func (s *stubMarketplace) ListPayouts(context.Context, int, int) (*marketplace.Page[marketplace.Payout], error) {
	if s.err != nil {
		return nil, s.err
	}
	return &marketplace.Page[marketplace.Payout]{}, nil
}

func (s *stubMarketplace) ListLedgerEntries(context.Context, time.Time, time.Time, int, int) (*marketplace.Page[marketplace.LedgerEntry], error) {
	if s.err != nil {
		return nil, s.err
	}
	return &marketplace.Page[marketplace.LedgerEntry]{}, nil
}

type stubContacts struct {
	contacts map[string]*accounting.Contact
}

func (s *stubContacts) FindContactByEmail(_ context.Context, email string) (*accounting.Contact, error) {
	return s.contacts[email], nil
}

func newIntegrationRouter(t *testing.T, mp *stubMarketplace, acc *stubContacts) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewIntegrationHandler(mp, acc, metrics.New(prometheus.NewRegistry()), zap.NewNop())

	router := gin.New()
	router.GET("/api/v1/marketplace/shop", h.GetShop)
	router.GET("/api/v1/marketplace/orders", h.ListOrders)
	router.GET("/api/v1/marketplace/payouts", h.ListPayouts)
	router.GET("/api/v1/marketplace/ledger-entries", h.ListLedgerEntries)
	router.GET("/api/v1/accounting/contacts", h.FindContact)
	return router
}

func TestListOrdersEndpoint(t *testing.T) {
	mp := &stubMarketplace{orders: []marketplace.Order{{ReceiptID: 1001, IsPaid: true}}}
	router := newIntegrationRouter(t, mp, &stubContacts{})

	w := doRequest(router, http.MethodGet,
		"/api/v1/marketplace/orders?limit=10&offset=5&min_created=2026-01-01", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page marketplace.Page[marketplace.Order]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(1001), page.Results[0].ReceiptID)

	assert.Equal(t, 10, mp.lastParams.Limit)
	assert.Equal(t, 5, mp.lastParams.Offset)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), mp.lastParams.MinCreated)
}

func TestListOrdersEndpointRejectsBadDate(t *testing.T) {
	router := newIntegrationRouter(t, &stubMarketplace{}, &stubContacts{})

	w := doRequest(router, http.MethodGet, "/api/v1/marketplace/orders?min_created=01.01.2026", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetShopEndpoint(t *testing.T) {
	router := newIntegrationRouter(t, &stubMarketplace{}, &stubContacts{})

	w := doRequest(router, http.MethodGet, "/api/v1/marketplace/shop", "")
	require.Equal(t, http.StatusOK, w.Code)

	var shop marketplace.Shop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shop))
	assert.Equal(t, "testshop", shop.ShopName)
}

func TestMarketplaceAuthFailureIs502(t *testing.T) {
	mp := &stubMarketplace{err: &httpclient.AuthError{StatusCode: 401, Body: "expired"}}
	router := newIntegrationRouter(t, mp, &stubContacts{})

	w := doRequest(router, http.MethodGet, "/api/v1/marketplace/shop", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "credentials")
}

func TestFindContactEndpoint(t *testing.T) {
	acc := &stubContacts{contacts: map[string]*accounting.Contact{
		"known@example.com": {ID: "77", Email: "known@example.com"},
	}}
	router := newIntegrationRouter(t, &stubMarketplace{}, acc)

	w := doRequest(router, http.MethodGet, "/api/v1/accounting/contacts?email=known@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)

	var contact accounting.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contact))
	assert.Equal(t, "77", contact.ID)

	w = doRequest(router, http.MethodGet, "/api/v1/accounting/contacts?email=unknown@example.com", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/accounting/contacts", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
