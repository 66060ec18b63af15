// internal/currency/fixer_test.go
package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/clock"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
)

func newFixerTestProvider(t *testing.T, handler http.Handler) *FixerProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	endpoint := httpclient.Endpoint{
		BaseURL:           srv.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
	}
	policy := httpclient.RetryPolicy{MaxAttempts: 1, BaseBackoff: time.Millisecond, Multiplier: 2, MaxBackoff: time.Millisecond}
	client := httpclient.NewClient(endpoint, policy, zap.NewNop())

	fakeClock := clock.NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	return NewFixerProviderWithClient(client, "test-key", fakeClock, zap.NewNop())
}

func TestFixerProviderFetchesLatest(t *testing.T) {
	provider := newFixerTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		w.Write([]byte(`{"success":true,"base":"EUR","rates":{"USD":1.0832,"GBP":0.8571}}`))
	}))

	rate, err := provider.GetRate(context.Background(), "EUR", "USD", time.Time{})
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec(t, "1.0832")), "got %s", rate)
}

func TestFixerProviderHistoricalDatePath(t *testing.T) {
	provider := newFixerTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2025-12-31", r.URL.Path)
		w.Write([]byte(`{"success":true,"rates":{"USD":1.0401}}`))
	}))

	asOf := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	rate, err := provider.GetRate(context.Background(), "EUR", "USD", asOf)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec(t, "1.0401")))
}

func TestFixerProviderSurfacesAPIErrors(t *testing.T) {
	provider := newFixerTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":{"code":104,"type":"usage_limit_reached"}}`))
	}))

	_, err := provider.GetRate(context.Background(), "EUR", "USD", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage_limit_reached")
}
