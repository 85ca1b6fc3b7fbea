package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/precatorio/internal/domain"
)

// Metrics holds all Prometheus metrics and implements usecase.Recorder.
type Metrics struct {
	// Calculation metrics
	Calculations          *prometheus.CounterVec
	CalculationDuration   *prometheus.HistogramVec
	ClampedApportionments prometheus.Counter
	UnmatchedWindows      *prometheus.CounterVec

	// Reference data metrics
	IndexRefreshes       *prometheus.CounterVec
	SnapshotEntries      *prometheus.GaugeVec
	SnapshotLoadedAtUnix prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Calculation metrics
		Calculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "precatorio_calculations_total",
				Help: "Total calculations by operation and status",
			},
			[]string{"operation", "status"},
		),
		CalculationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "precatorio_calculation_duration_seconds",
				Help:    "Duration of calculation operations",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),
		ClampedApportionments: factory.NewCounter(prometheus.CounterOpts{
			Name: "precatorio_apportionments_clamped_total",
			Help: "Apportionments whose deductions exceeded the gross value",
		}),
		UnmatchedWindows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "precatorio_factor_windows_unmatched_total",
				Help: "Factor resolutions that matched no entry and returned the neutral factor",
			},
			[]string{"table"},
		),

		// Reference data metrics
		IndexRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "precatorio_index_refreshes_total",
				Help: "Index snapshot refreshes by status",
			},
			[]string{"status"},
		),
		SnapshotEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "precatorio_index_snapshot_entries",
				Help: "Entries per table in the published snapshot",
			},
			[]string{"table"},
		),
		SnapshotLoadedAtUnix: factory.NewGauge(prometheus.GaugeOpts{
			Name: "precatorio_index_snapshot_loaded_timestamp_seconds",
			Help: "Load time of the published snapshot",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "precatorio_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "precatorio_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "precatorio_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveCalculation records one engine operation.
func (m *Metrics) ObserveCalculation(operation string, err error, duration time.Duration) {
	m.Calculations.WithLabelValues(operation, calculationStatus(err)).Inc()
	m.CalculationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveUnmatchedWindow records a neutral factor resolution.
func (m *Metrics) ObserveUnmatchedWindow(table string) {
	m.UnmatchedWindows.WithLabelValues(table).Inc()
}

// ObserveClampedApportionment records a net value floored at zero.
func (m *Metrics) ObserveClampedApportionment() {
	m.ClampedApportionments.Inc()
}

// ObserveRefresh records a refresh attempt and, on success, the new snapshot.
func (m *Metrics) ObserveRefresh(snapshot *domain.IndexSnapshot, err error) {
	if err != nil {
		m.IndexRefreshes.WithLabelValues("error").Inc()
		return
	}
	m.IndexRefreshes.WithLabelValues("success").Inc()

	m.SnapshotEntries.Reset()
	for _, t := range snapshot.Tables() {
		m.SnapshotEntries.WithLabelValues(t.Name).Set(float64(t.Len()))
	}
	m.SnapshotLoadedAtUnix.Set(float64(snapshot.LoadedAt.Unix()))
}

// calculationStatus separates caller input errors from missing reference data.
func calculationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNoSnapshot),
		errors.Is(err, domain.ErrTableNotFound),
		errors.Is(err, domain.ErrEmptyTable),
		errors.Is(err, domain.ErrNoReferenceValue):
		return "reference_error"
	default:
		return "invalid_input"
	}
}
