// internal/httpclient/ratelimit_test.go
package httpclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterSpacesRequests(t *testing.T) {
	limiter := NewLimiter(50)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	elapsed := time.Since(start)

	// Burst of one: the second and third acquire each wait ~20ms.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestLimiterDefaultsInvalidRate(t *testing.T) {
	limiter := NewLimiter(0)
	require.NoError(t, limiter.Acquire(context.Background()))
}

func TestLimiterCancelledContext(t *testing.T) {
	limiter := NewLimiter(0.001)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	assert.Error(t, err)
}
