// internal/clock/clock_test.go
package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSleepAdvancesAndRecords(t *testing.T) {
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	require.NoError(t, fake.Sleep(context.Background(), 5*time.Second))
	require.NoError(t, fake.Sleep(context.Background(), 10*time.Second))

	assert.Equal(t, start.Add(15*time.Second), fake.Now())
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, fake.Sleeps())
	assert.Equal(t, 15*time.Second, fake.TotalSlept())
}

func TestFakeSleepHonorsCancelledContext(t *testing.T) {
	fake := NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fake.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.Sleeps())
}

func TestFakeAdvanceDoesNotRecordSleep(t *testing.T) {
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	fake.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), fake.Now())
	assert.Empty(t, fake.Sleeps())
}

func TestRealClockSleepReturnsOnCancel(t *testing.T) {
	clk := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := clk.Sleep(ctx, time.Minute)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
