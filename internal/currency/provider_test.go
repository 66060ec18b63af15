// internal/currency/provider_test.go
package currency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManualProviderCrossRates(t *testing.T) {
	provider, err := NewManualProvider(map[string]string{
		"USD": "1.10",
		"GBP": "0.88",
	})
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"identity", "USD", "USD", "1"},
		{"from base", "EUR", "USD", "1.10"},
		{"to base", "USD", "EUR", "0.9090909090909091"},
		{"cross pair", "USD", "GBP", "0.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.GetRate(ctx, tt.from, tt.to, time.Time{})
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(t, tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestManualProviderUnsupportedCurrency(t *testing.T) {
	provider, err := NewManualProvider(map[string]string{"USD": "1.10"})
	require.NoError(t, err)

	_, err = provider.GetRate(context.Background(), "USD", "JPY", time.Time{})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = provider.GetRate(context.Background(), "JPY", "EUR", time.Time{})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestNewManualProviderRejectsBadRates(t *testing.T) {
	_, err := NewManualProvider(map[string]string{"USD": "not a number"})
	assert.Error(t, err)

	_, err = NewManualProvider(map[string]string{"USD": "0"})
	assert.Error(t, err)

	_, err = NewManualProvider(map[string]string{"USD": "-1.10"})
	assert.Error(t, err)
}

func TestNewProviderFactory(t *testing.T) {
	log := zap.NewNop()

	t.Run("ecb", func(t *testing.T) {
		p, err := NewProvider(Options{Name: "ecb"}, log)
		require.NoError(t, err)
		assert.Equal(t, "ecb", p.Name())
	})

	t.Run("fixer requires api key", func(t *testing.T) {
		_, err := NewProvider(Options{Name: "fixer"}, log)
		assert.Error(t, err)

		p, err := NewProvider(Options{Name: "fixer", FixerAPIKey: "k"}, log)
		require.NoError(t, err)
		assert.Equal(t, "fixer", p.Name())
	})

	t.Run("manual requires rates", func(t *testing.T) {
		_, err := NewProvider(Options{Name: "manual"}, log)
		assert.Error(t, err)

		p, err := NewProvider(Options{Name: "manual", ManualRates: map[string]string{"USD": "1.10"}}, log)
		require.NoError(t, err)
		assert.Equal(t, "manual", p.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewProvider(Options{Name: "astrology"}, log)
		assert.Error(t, err)
	})
}
