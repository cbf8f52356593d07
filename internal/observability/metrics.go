package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served by platformd.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	probeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsctl",
			Subsystem: "status",
			Name:      "probes_total",
			Help:      "Status probe outcomes by probe name.",
		},
		[]string{"probe", "ok"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsctl",
			Subsystem: "status",
			Name:      "probe_duration_seconds",
			Help:      "Status probe duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"probe", "ok"},
	)
	deployStages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsctl",
			Subsystem: "deploy",
			Name:      "stages_total",
			Help:      "Deploy pipeline stage outcomes.",
		},
		[]string{"stage", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, probeResults, probeDuration, deployStages)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordProbe(probe string, ok bool, duration time.Duration) {
	RegisterMetrics()
	okLabel := strconv.FormatBool(ok)
	probeResults.WithLabelValues(probe, okLabel).Inc()
	probeDuration.WithLabelValues(probe, okLabel).Observe(duration.Seconds())
}

func RecordDeployStage(stage string, outcome string) {
	RegisterMetrics()
	deployStages.WithLabelValues(stage, outcome).Inc()
}
