// Package metrics provides the centralized Prometheus registry for the
// backtesting service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	JobsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "turfsim",
		Name:      "jobs_submitted_total",
		Help:      "Total number of backtest jobs submitted",
	})
	JobsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turfsim",
		Name:      "jobs_finished_total",
		Help:      "Total number of backtest jobs reaching a terminal status",
	}, []string{"status"})
	RacesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "turfsim",
		Name:      "races_processed_total",
		Help:      "Total number of races simulated across all runs",
	})
	RacesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "turfsim",
		Name:      "races_skipped_total",
		Help:      "Total number of races skipped for missing data",
	})
	RaceErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "turfsim",
		Name:      "race_errors_total",
		Help:      "Total number of race data errors tolerated during runs",
	})
	ResultsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "turfsim",
		Name:      "results_expired_total",
		Help:      "Total number of result lookups that found an expired result",
	})
)

// Gauge metrics
var (
	JobsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "turfsim",
		Name:      "jobs_active",
		Help:      "Number of jobs currently pending or running",
	})
	WorkerPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "turfsim",
		Name:      "worker_pool_size",
		Help:      "Number of worker goroutines executing jobs",
	})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "turfsim",
		Name:      "run_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "turfsim",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(JobsSubmittedTotal)
		registry.MustRegister(JobsFinishedTotal)
		registry.MustRegister(RacesProcessedTotal)
		registry.MustRegister(RacesSkippedTotal)
		registry.MustRegister(RaceErrorsTotal)
		registry.MustRegister(ResultsExpiredTotal)

		registry.MustRegister(JobsActive)
		registry.MustRegister(WorkerPoolSize)

		registry.MustRegister(RunDuration)
		registry.MustRegister(HTTPRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordJobSubmitted records a new job submission.
func RecordJobSubmitted() {
	JobsSubmittedTotal.Inc()
	JobsActive.Inc()
}

// RecordJobFinished records a job reaching a terminal status.
func RecordJobFinished(status string) {
	JobsFinishedTotal.WithLabelValues(status).Inc()
	JobsActive.Dec()
}

// RecordRun records the outcome counters of one completed run.
func RecordRun(durationSeconds float64, processed, skipped, errored int) {
	RunDuration.Observe(durationSeconds)
	RacesProcessedTotal.Add(float64(processed))
	RacesSkippedTotal.Add(float64(skipped))
	RaceErrorsTotal.Add(float64(errored))
}

// RecordResultExpired records a lookup that hit an expired result.
func RecordResultExpired() {
	ResultsExpiredTotal.Inc()
}
