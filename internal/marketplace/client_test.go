// internal/marketplace/client_test.go
package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
)

func newTestMarketplace(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:           srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		ShopID:            42,
		ClientID:          "client-id",
		ClientSecret:      "client-secret",
		RefreshToken:      "refresh-token",
	}
	policy := httpclient.RetryPolicy{MaxAttempts: 1, BaseBackoff: time.Millisecond, Multiplier: 2, MaxBackoff: time.Millisecond}
	return NewClient(cfg, policy, zap.NewNop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClientRefreshesTokenBeforeFirstCall(t *testing.T) {
	var tokenCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/public/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&tokenCalls, 1)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh_token", body["grant_type"])
		assert.Equal(t, "client-id", body["client_id"])
		assert.Equal(t, "refresh-token", body["refresh_token"])

		writeJSON(t, w, map[string]interface{}{"access_token": "token-1", "token_type": "Bearer"})
	})
	mux.HandleFunc("/application/shops/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "client-id", r.Header.Get("x-api-key"))
		writeJSON(t, w, Shop{ShopID: 42, ShopName: "testshop", CurrencyCode: "EUR"})
	})

	client := newTestMarketplace(t, mux)

	shop, err := client.GetShop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), shop.ShopID)
	assert.Equal(t, "testshop", shop.ShopName)
	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenCalls))

	// Subsequent calls reuse the token.
	_, err = client.GetShop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenCalls))
}

func TestClientRefreshesTokenOnceAfterRejection(t *testing.T) {
	var tokenCalls, shopCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/public/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&tokenCalls, 1)
		token := "token-1"
		if n > 1 {
			token = "token-2"
		}
		writeJSON(t, w, map[string]interface{}{"access_token": token})
	})
	mux.HandleFunc("/application/shops/42", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&shopCalls, 1)
		if r.Header.Get("Authorization") != "Bearer token-2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid token"}`))
			return
		}
		writeJSON(t, w, Shop{ShopID: 42})
	})

	client := newTestMarketplace(t, mux)

	shop, err := client.GetShop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), shop.ShopID)
	assert.Equal(t, int64(2), atomic.LoadInt64(&tokenCalls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&shopCalls))
}

func TestListOrdersBuildsWindowQuery(t *testing.T) {
	minCreated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maxCreated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/public/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"access_token": "token-1"})
	})
	mux.HandleFunc("/application/shops/42/receipts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "25", q.Get("limit"))
		assert.Equal(t, "50", q.Get("offset"))
		assert.Equal(t, "1767225600", q.Get("min_created"))
		assert.Equal(t, "1769904000", q.Get("max_created"))

		writeJSON(t, w, Page[Order]{
			Count: 1,
			Results: []Order{{
				ReceiptID:  1001,
				IsPaid:     true,
				BuyerEmail: "buyer@example.com",
				GrandTotal: Amount{Amount: 1999, Divisor: 100, CurrencyCode: "USD"},
			}},
		})
	})

	client := newTestMarketplace(t, mux)

	page, err := client.ListOrders(context.Background(), ListOrdersParams{
		Limit:      25,
		Offset:     50,
		MinCreated: minCreated,
		MaxCreated: maxCreated,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)

	order := page.Results[0]
	assert.Equal(t, int64(1001), order.ReceiptID)
	assert.Equal(t, "19.99", order.GrandTotal.Decimal().String())
}

func TestListLedgerEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/public/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"access_token": "token-1"})
	})
	mux.HandleFunc("/application/shops/42/payment-account/ledger-entries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, Page[LedgerEntry]{
			Count: 2,
			Results: []LedgerEntry{
				{EntryID: 1, LedgerType: "FEES", Amount: Amount{Amount: -250, Divisor: 100, CurrencyCode: "EUR"}},
				{EntryID: 2, LedgerType: "SALE", Amount: Amount{Amount: 1999, Divisor: 100, CurrencyCode: "EUR"}},
			},
		})
	})

	client := newTestMarketplace(t, mux)

	page, err := client.ListLedgerEntries(context.Background(), time.Time{}, time.Time{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "-2.5", page.Results[0].Amount.Decimal().String())
}

func TestAmountDecimal(t *testing.T) {
	tests := []struct {
		amount  int64
		divisor int64
		want    string
	}{
		{1999, 100, "19.99"},
		{-250, 100, "-2.5"},
		{5, 1, "5"},
		{7, 0, "7"},
	}

	for _, tt := range tests {
		a := Amount{Amount: tt.amount, Divisor: tt.divisor}
		assert.Equal(t, tt.want, a.Decimal().String())
	}
}
