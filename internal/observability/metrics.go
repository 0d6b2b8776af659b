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
			Namespace: "tramctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total status API requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tramctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Status API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	ingestBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tramctl",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Bytes read from the feed.",
		},
	)
	ingestRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tramctl",
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Records decoded and applied to the registry.",
		},
		[]string{"discriminant"},
	)
	ingestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tramctl",
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Feed errors by kind.",
		},
		[]string{"kind"},
	)
	ingestReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tramctl",
			Subsystem: "ingest",
			Name:      "reconnects_total",
			Help:      "Feed connections re-established after a failure.",
		},
	)
	registryEntities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tramctl",
			Subsystem: "registry",
			Name:      "entities",
			Help:      "Distinct trams observed.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			ingestBytes,
			ingestRecords,
			ingestErrors,
			ingestReconnects,
			registryEntities,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordIngestBytes(n int) {
	RegisterMetrics()
	ingestBytes.Add(float64(n))
}

func RecordIngestRecord(discriminant string) {
	RegisterMetrics()
	ingestRecords.WithLabelValues(discriminant).Inc()
}

func RecordIngestError(kind string) {
	RegisterMetrics()
	ingestErrors.WithLabelValues(kind).Inc()
}

func RecordReconnect() {
	RegisterMetrics()
	ingestReconnects.Inc()
}

func SetRegistryEntities(n int) {
	RegisterMetrics()
	registryEntities.Set(float64(n))
}
