// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
	RateLimitWait   *prometheus.HistogramVec

	// Analysis metrics
	AnalysesTotal *prometheus.CounterVec

	// Scan metrics
	ScansTotal          *prometheus.CounterVec
	ScanDuration        prometheus.Histogram
	ScanRunning         prometheus.Gauge
	ScanCandidates      prometheus.Gauge
	ScanCompleted       prometheus.Gauge
	ScanErrors          prometheus.Gauge
	ScanResultsRecorded prometheus.Counter

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	StreamClients prometheus.Gauge

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "banjocap"
	}

	return &Metrics{
		// Provider metrics
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of provider calls by provider, operation and status",
		}, []string{"provider", "operation", "status"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Provider call latency in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		}, []string{"provider"}),
		RateLimitWait: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a rate limiter grant",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
		}, []string{"source"}),

		// Analysis metrics
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of single-token analyses by status",
		}, []string{"status"}),

		// Scan metrics
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of batch scans by status",
		}, []string{"status"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Batch scan duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ScanRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "running",
			Help:      "1 while a batch scan is in flight",
		}),
		ScanCandidates: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates",
			Help:      "Number of candidates in the current or last scan",
		}),
		ScanCompleted: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "completed",
			Help:      "Number of candidates completed in the current or last scan",
		}),
		ScanErrors: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "errors",
			Help:      "Number of failed candidates in the current or last scan",
		}),
		ScanResultsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "results_total",
			Help:      "Total number of token records produced by scans",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "stream_clients",
			Help:      "Number of connected scan stream clients",
		}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderCall records one provider call and its latency.
func RecordProviderCall(provider, operation string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.ProviderCalls.WithLabelValues(provider, operation, status).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(provider, operation).Observe(seconds)
}

// SetBreakerState updates the circuit breaker gauge for a provider.
func SetBreakerState(provider string, state int) {
	DefaultMetrics.BreakerState.WithLabelValues(provider).Set(float64(state))
}

// RecordRateLimitWait records time spent waiting for a grant.
func RecordRateLimitWait(source string, seconds float64) {
	DefaultMetrics.RateLimitWait.WithLabelValues(source).Observe(seconds)
}

// RecordAnalysis records a single-token analysis outcome.
func RecordAnalysis(status string) {
	DefaultMetrics.AnalysesTotal.WithLabelValues(status).Inc()
}

// RecordScanStarted marks a scan as in flight.
func RecordScanStarted(candidates int) {
	DefaultMetrics.ScanRunning.Set(1)
	DefaultMetrics.ScanCandidates.Set(float64(candidates))
	DefaultMetrics.ScanCompleted.Set(0)
	DefaultMetrics.ScanErrors.Set(0)
}

// UpdateScanProgress updates the scan progress gauges.
func UpdateScanProgress(completed, errors int) {
	DefaultMetrics.ScanCompleted.Set(float64(completed))
	DefaultMetrics.ScanErrors.Set(float64(errors))
}

// RecordScanFinished records a terminated scan.
func RecordScanFinished(status string, results int, durationSeconds float64, finishedUnix int64) {
	DefaultMetrics.ScanRunning.Set(0)
	DefaultMetrics.ScansTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
	DefaultMetrics.ScanResultsRecorded.Add(float64(results))
	if status == "success" {
		DefaultMetrics.LastSuccessfulScan.Set(float64(finishedUnix))
	}
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(route string, code int) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetStreamClients updates the connected stream clients gauge.
func SetStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}
