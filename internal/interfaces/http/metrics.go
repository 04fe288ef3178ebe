package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds the Prometheus metrics exported at GET /metrics.
type MetricsRegistry struct {
	// Batch Scorer metrics
	ScoringRunDuration *prometheus.HistogramVec
	CompaniesScored    *prometheus.CounterVec
	ScoringRunErrors   prometheus.Counter

	// Vendor client cache/fetch metrics
	VendorFetchLatency *prometheus.HistogramVec
	CacheHitRatio      prometheus.Gauge
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec

	// Alert Evaluator metrics
	AlertsFired   *prometheus.CounterVec
	AlertEvalTick *prometheus.HistogramVec

	// Tier distribution of the latest score per company
	TierDistribution *prometheus.GaugeVec
}

// NewMetricsRegistry creates and registers the metrics this service exports.
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		ScoringRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedge_scoring_run_duration_seconds",
				Help:    "Duration of a batch scoring run",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"result"},
		),

		CompaniesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedge_companies_scored_total",
				Help: "Total number of companies scored, by outcome",
			},
			[]string{"outcome"},
		),

		ScoringRunErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hedge_scoring_run_errors_total",
				Help: "Total number of batch scoring runs that failed outright",
			},
		),

		VendorFetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedge_vendor_fetch_latency_ms",
				Help:    "Vendor HTTP round-trip latency in milliseconds",
				Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			[]string{"vendor"},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hedge_cache_hit_ratio",
				Help: "Current vendor response cache hit ratio (0.0 to 1.0)",
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedge_cache_hits_total",
				Help: "Total number of vendor cache hits",
			},
			[]string{"vendor"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedge_cache_misses_total",
				Help: "Total number of vendor cache misses",
			},
			[]string{"vendor"},
		),

		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedge_alerts_fired_total",
				Help: "Total number of alerts fired, by alert type",
			},
			[]string{"alert_type"},
		),

		AlertEvalTick: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedge_alert_eval_tick_seconds",
				Help:    "Duration of one Alert Evaluator tick",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"result"},
		),

		TierDistribution: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedge_tier_distribution",
				Help: "Number of companies currently in each survival tier",
			},
			[]string{"tier"},
		),
	}

	prometheus.MustRegister(
		registry.ScoringRunDuration,
		registry.CompaniesScored,
		registry.ScoringRunErrors,
		registry.VendorFetchLatency,
		registry.CacheHitRatio,
		registry.CacheHits,
		registry.CacheMisses,
		registry.AlertsFired,
		registry.AlertEvalTick,
		registry.TierDistribution,
	)

	return registry
}

// RunTimer tracks a batch scoring run's wall-clock duration.
type RunTimer struct {
	metrics *MetricsRegistry
	start   time.Time
}

// StartRunTimer begins timing a scoring run.
func (m *MetricsRegistry) StartRunTimer() *RunTimer {
	return &RunTimer{metrics: m, start: time.Now()}
}

// Stop completes the run timing and records the metric.
func (rt *RunTimer) Stop(result string) {
	duration := time.Since(rt.start)
	rt.metrics.ScoringRunDuration.WithLabelValues(result).Observe(duration.Seconds())
	log.Debug().Str("result", result).Dur("duration", duration).Msg("scoring run completed")
}

// RecordCompanyScored tallies one company's scoring outcome ("ok" or "failed").
func (m *MetricsRegistry) RecordCompanyScored(outcome string) {
	m.CompaniesScored.WithLabelValues(outcome).Inc()
}

// RecordCacheHit records a vendor response cache hit.
func (m *MetricsRegistry) RecordCacheHit(vendor string) {
	m.CacheHits.WithLabelValues(vendor).Inc()
	cacheHitTotal++
	m.updateCacheHitRatio()
}

// RecordCacheMiss records a vendor response cache miss.
func (m *MetricsRegistry) RecordCacheMiss(vendor string) {
	m.CacheMisses.WithLabelValues(vendor).Inc()
	cacheMissTotal++
	m.updateCacheHitRatio()
}

// RecordVendorFetch records one vendor HTTP round trip's latency.
func (m *MetricsRegistry) RecordVendorFetch(vendor string, latency time.Duration) {
	m.VendorFetchLatency.WithLabelValues(vendor).Observe(float64(latency.Milliseconds()))
}

// RecordAlertFired tallies one fired alert by type.
func (m *MetricsRegistry) RecordAlertFired(alertType string) {
	m.AlertsFired.WithLabelValues(alertType).Inc()
}

// SetTierDistribution replaces the current tier-count snapshot.
func (m *MetricsRegistry) SetTierDistribution(counts map[string]int) {
	for tier, n := range counts {
		m.TierDistribution.WithLabelValues(tier).Set(float64(n))
	}
}

// cacheHitTotal/cacheMissTotal track running totals locally since
// Prometheus counters aren't directly readable back without a collector
// round-trip.
var cacheHitTotal, cacheMissTotal float64

func (m *MetricsRegistry) updateCacheHitRatio() {
	total := cacheHitTotal + cacheMissTotal
	if total > 0 {
		m.CacheHitRatio.Set(cacheHitTotal / total)
	}
}

// MetricsHandler returns the Prometheus scrape handler for GET /metrics.
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Global metrics registry instance, initialized once at startup.
var DefaultMetrics *MetricsRegistry

// InitializeMetrics initializes the global metrics registry.
func InitializeMetrics() {
	DefaultMetrics = NewMetricsRegistry()
	log.Info().Msg("metrics registry initialized")
}
