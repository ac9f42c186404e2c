package observability

import (
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	storeErrors        *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	schedulesComputed  *prometheus.CounterVec
	scheduleRows       *prometheus.HistogramVec
	investmentsCreated prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bonos_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bonos_store_errors_total",
				Help: "Total errors from the Supabase store, by table.",
			},
			[]string{"table"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bonos_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bonos_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		schedulesComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bonos_schedules_computed_total",
				Help: "Amortization schedules computed, by method.",
			},
			[]string{"method"},
		),
		scheduleRows: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bonos_schedule_rows",
				Help:    "Rows per computed schedule.",
				Buckets: []float64{1, 2, 4, 8, 12, 24, 60, 120, 240, 600},
			},
			[]string{"method"},
		),
		investmentsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bonos_investments_created_total",
				Help: "Investments recorded.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(table string) {
	m.storeErrors.WithLabelValues(table).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordSchedule counts a computed schedule and its size.
func (m *Metrics) RecordSchedule(method string, rows int) {
	m.schedulesComputed.WithLabelValues(method).Inc()
	m.scheduleRows.WithLabelValues(method).Observe(float64(rows))
}

// IncrInvestmentCreated counts a recorded investment.
func (m *Metrics) IncrInvestmentCreated() {
	m.investmentsCreated.Inc()
}

// Snapshot returns the engine counters for GET /v1/metrics/engine.
func (m *Metrics) Snapshot(methods, caches, tables []string) *domain.EngineMetrics {
	s := &domain.EngineMetrics{SchedulesComputed: make(map[string]float64, len(methods))}
	for _, method := range methods {
		s.SchedulesComputed[method] = getCounterValue(m.schedulesComputed, method)
	}
	for _, c := range caches {
		s.CacheHits += getCounterValue(m.cacheHits, c)
		s.CacheMisses += getCounterValue(m.cacheMisses, c)
	}
	for _, t := range tables {
		s.StoreErrors += getCounterValue(m.storeErrors, t)
	}
	s.InvestmentsCreated = counterValue(m.investmentsCreated)
	if total := s.CacheHits + s.CacheMisses; total > 0 {
		s.CacheHitRate = s.CacheHits / total
	}
	return s
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
