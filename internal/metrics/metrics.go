package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magpie_ingest_runs_total",
			Help: "Total number of ingestion runs executed",
		},
		[]string{"outcome"},
	)

	URLsMeasuredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magpie_urls_measured_total",
			Help: "URLs processed during ingestion, by content type and outcome",
		},
		[]string{"content_type", "outcome"},
	)

	MeasureDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "magpie_measure_duration_seconds",
			Help:    "Time spent measuring keyword occurrences per URL",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"content_type"},
	)

	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "magpie_ingest_run_duration_seconds",
			Help:    "End-to-end duration of ingestion runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	RankPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "magpie_rank_pages_total",
			Help: "Total number of result pages served by the ranking engine",
		},
	)
)

// RecordMeasured updates the per-URL counters after one measurement attempt.
// Outcome is one of measured, not_found, error or skipped.
func RecordMeasured(contentType, outcome string, duration time.Duration) {
	URLsMeasuredTotal.WithLabelValues(contentType, outcome).Inc()
	MeasureDuration.WithLabelValues(contentType).Observe(duration.Seconds())
}

// RecordRun counts one finished ingestion run with outcome ok, empty or error.
func RecordRun(outcome string) {
	IngestRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordRunDuration observes one run's end-to-end duration.
func RecordRunDuration(duration time.Duration) {
	IngestRunDuration.Observe(duration.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
