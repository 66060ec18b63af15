// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sync core's Prometheus instruments.
type Metrics struct {
	ConversionsTotal      *prometheus.CounterVec
	ConversionErrorsTotal *prometheus.CounterVec
	RateLookupsTotal      *prometheus.CounterVec
	MarketplaceReadsTotal *prometheus.CounterVec
	IdempotencySweptTotal prometheus.Counter
	IdempotencyStoreSize  prometheus.Gauge
}

// New registers the instruments with reg. Production passes
// prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConversionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_conversions_total",
			Help: "Currency conversions performed",
		}, []string{"from", "to"}),
		ConversionErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_conversion_errors_total",
			Help: "Currency conversions that failed",
		}, []string{"from", "to"}),
		RateLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_rate_lookups_total",
			Help: "Exchange rate lookups by provider",
		}, []string{"provider"}),
		MarketplaceReadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_marketplace_reads_total",
			Help: "Marketplace record reads by resource",
		}, []string{"resource"}),
		IdempotencySweptTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "marketsync_idempotency_keys_swept_total",
			Help: "Expired idempotency keys removed by the background sweeper",
		}),
		IdempotencyStoreSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketsync_idempotency_store_size",
			Help: "Entries currently held by the in-memory idempotency store",
		}),
	}
}
