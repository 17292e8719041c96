package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	submissionsTotal      prometheus.Counter
	lockCyclesTotal       prometheus.Counter
	unlockDenialsTotal    prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fcs_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fcs_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		submissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fcs_submissions_total",
			Help: "Total number of counseling logs written to the store.",
		})

		lockCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fcs_lock_cycles_total",
			Help: "Total number of lock transitions entered after submission.",
		})

		unlockDenialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fcs_unlock_denials_total",
			Help: "Total number of rejected unlock attempts.",
		})

		prometheus.MustRegister(requestsTotal, requestLatencySeconds, submissionsTotal, lockCyclesTotal, unlockDenialsTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// Submissions exposes the counter for persisted counseling logs.
func Submissions() prometheus.Counter {
	RegisterMetrics()
	return submissionsTotal
}

// LockCycles exposes the counter for lock transitions.
func LockCycles() prometheus.Counter {
	RegisterMetrics()
	return lockCyclesTotal
}

// UnlockDenials exposes the counter for rejected unlock attempts.
func UnlockDenials() prometheus.Counter {
	RegisterMetrics()
	return unlockDenialsTotal
}
