// Package observability provides Prometheus metrics for the media
// tagging pipeline.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Ingest pipeline
	IngestsProcessed *prometheus.CounterVec
	IngestDuration   prometheus.Histogram

	// Detector
	DetectorRequests *prometheus.CounterVec
	DetectorLatency  prometheus.Histogram

	// Notifications
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter

	// Tag edits
	EditFanOutSize prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all collectors registered
// on a private registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		IngestsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "birdtag_ingests_processed_total",
				Help: "Number of ingested media objects by file type and outcome",
			},
			[]string{"file_type", "status"},
		),
		IngestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "birdtag_ingest_duration_seconds",
				Help:    "End to end ingest processing time",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		DetectorRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "birdtag_detector_requests_total",
				Help: "Number of detector invocations by outcome",
			},
			[]string{"status"},
		),
		DetectorLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "birdtag_detector_latency_seconds",
				Help:    "Detector round trip latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		NotificationsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "birdtag_notifications_sent_total",
				Help: "Number of notifications delivered",
			},
		),
		NotificationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "birdtag_notification_failures_total",
				Help: "Number of notification deliveries that failed",
			},
		),
		EditFanOutSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "birdtag_edit_fanout_records",
				Help:    "Number of records matched per bulk tag edit",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	collectors := []prometheus.Collector{
		m.IngestsProcessed,
		m.IngestDuration,
		m.DetectorRequests,
		m.DetectorLatency,
		m.NotificationsSent,
		m.NotificationFailures,
		m.EditFanOutSize,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// Handler returns the HTTP handler serving the private registry, for
// mounting on non-ServeMux routers.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, r)
}
