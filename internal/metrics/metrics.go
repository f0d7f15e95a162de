// Package metrics exposes ledger instrumentation. Services depend on the
// Collector interface; Prometheus backs it in the server and Noop in tests.
package metrics

import (
	"strconv"
	"time"

	"gymledger/internal/money"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordError(operation, errType string)
	RecordVolume(operation string, amount money.Amount)
	RecordBalanceDrift(gymID uint, drift money.Amount)
	RecordCacheHit(name string)
	RecordCacheMiss(name string)
}

// NoopCollector is a no-op implementation of Collector
type NoopCollector struct{}

func (NoopCollector) RecordOperationDuration(string, time.Duration) {}
func (NoopCollector) RecordOperationResult(string, string)          {}
func (NoopCollector) RecordError(string, string)                    {}
func (NoopCollector) RecordVolume(string, money.Amount)             {}
func (NoopCollector) RecordBalanceDrift(uint, money.Amount)         {}
func (NoopCollector) RecordCacheHit(string)                         {}
func (NoopCollector) RecordCacheMiss(string)                        {}

type PrometheusCollector struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	volume     *prometheus.CounterVec
	drift      *prometheus.GaugeVec
	cache      *prometheus.CounterVec
}

// NewPrometheusCollector registers the ledger metrics with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	f := promauto.With(reg)
	return &PrometheusCollector{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gymledger_operations_total",
			Help: "Ledger operations by outcome",
		}, []string{"operation", "result"}),
		durations: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gymledger_operation_duration_seconds",
			Help:    "Ledger operation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gymledger_errors_total",
			Help: "Ledger operation failures by error code",
		}, []string{"operation", "code"}),
		volume: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gymledger_volume_minor_units_total",
			Help: "Money moved through the ledger, in minor currency units",
		}, []string{"operation"}),
		drift: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gymledger_balance_drift_minor_units",
			Help: "Stored balance minus the balance implied by entries and withdrawals",
		}, []string{"gym_id"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gymledger_report_cache_total",
			Help: "Report cache lookups",
		}, []string{"name", "result"}),
	}
}

func (p *PrometheusCollector) RecordOperationDuration(operation string, duration time.Duration) {
	p.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordOperationResult(operation, result string) {
	p.operations.WithLabelValues(operation, result).Inc()
}

func (p *PrometheusCollector) RecordError(operation, errType string) {
	p.errors.WithLabelValues(operation, errType).Inc()
}

func (p *PrometheusCollector) RecordVolume(operation string, amount money.Amount) {
	if amount < 0 {
		amount = -amount
	}
	p.volume.WithLabelValues(operation).Add(float64(amount))
}

func (p *PrometheusCollector) RecordBalanceDrift(gymID uint, drift money.Amount) {
	p.drift.WithLabelValues(strconv.FormatUint(uint64(gymID), 10)).Set(float64(drift))
}

func (p *PrometheusCollector) RecordCacheHit(name string) {
	p.cache.WithLabelValues(name, "hit").Inc()
}

func (p *PrometheusCollector) RecordCacheMiss(name string) {
	p.cache.WithLabelValues(name, "miss").Inc()
}
