package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var startTime = time.Now()

var (
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "uptime_seconds",
		Help:      "The uptime of the marketplace service in seconds",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	JobOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "job_operations_total",
		Help:      "Job lifecycle operations by type and outcome",
	}, []string{"operation", "status"})

	SettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "settlements_total",
		Help:      "Completed reward settlements",
	})

	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "chain_syncs_total",
		Help:      "Chain reconciliation attempts by result",
	}, []string{"result"})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "chain_sync_duration_seconds",
		Help:      "Chain reconciliation duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	WalletSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "talentdao",
		Subsystem: "marketplace",
		Name:      "wallet_sessions_active",
		Help:      "Currently connected wallet sessions",
	})
)

// TrackJobOperation records one lifecycle operation's outcome.
func TrackJobOperation(operation string) func(error) {
	return func(err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		JobOperationsTotal.WithLabelValues(operation, status).Inc()
	}
}

// TrackSync records one reconciliation attempt.
func TrackSync() func(result string) {
	start := time.Now()
	return func(result string) {
		SyncsTotal.WithLabelValues(result).Inc()
		SyncDuration.Observe(time.Since(start).Seconds())
	}
}
