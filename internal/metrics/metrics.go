package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shareplace"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	sagaRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "runs_total",
			Help:      "Lifecycle saga runs by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	compensationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "compensation_failures_total",
			Help:      "Compensations and best-effort cleanups that failed.",
		},
		[]string{"operation", "step"},
	)
	assetOps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "operation_duration_seconds",
			Help:      "Object store call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "success"},
	)
	orphansSwept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "orphans_swept_total",
			Help:      "Orphaned assets processed by the sweeper.",
		},
		[]string{"result"},
	)
)

// Saga outcomes.
const (
	OutcomeCommitted   = "committed"
	OutcomeCompensated = "compensated"
	OutcomeFailed      = "failed"
)

// Sweep results.
const (
	SweepDeleted    = "deleted"
	SweepReferenced = "referenced"
	SweepFailed     = "failed"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, sagaRuns, compensationFailures, assetOps, orphansSwept)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordSaga(operation, outcome string) {
	RegisterMetrics()
	sagaRuns.WithLabelValues(operation, outcome).Inc()
}

func RecordCompensationFailure(operation, step string) {
	RegisterMetrics()
	compensationFailures.WithLabelValues(operation, step).Inc()
}

func RecordAssetOp(operation string, duration time.Duration, success bool) {
	RegisterMetrics()
	assetOps.WithLabelValues(operation, strconv.FormatBool(success)).Observe(duration.Seconds())
}

func RecordSweep(result string) {
	RegisterMetrics()
	orphansSwept.WithLabelValues(result).Inc()
}
