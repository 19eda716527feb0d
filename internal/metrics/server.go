// Package metrics provides a simple Prometheus-compatible metrics endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime counters for an analysis run.
type Metrics struct {
	// Warehouse operations
	WarehouseQueries     atomic.Int64
	WarehouseQueryErrors atomic.Int64

	// Pipeline progress
	TokensProcessed  atomic.Int64
	TokensFailed     atomic.Int64
	SessionsAnalyzed atomic.Int64

	// Annotator calls
	AnnotatorCalls      atomic.Int64
	AnnotatorCallErrors atomic.Int64

	// Emitted records
	IntentsEmitted atomic.Int64
	ErrorsEmitted  atomic.Int64

	// Timing (last annotation duration in ms)
	LastAnnotationDurationMs atomic.Int64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the global metrics instance
func Global() *Metrics {
	globalOnce.Do(func() {
		global = &Metrics{
			startTime: time.Now(),
		}
	})
	return global
}

// RecordQuery records a warehouse query attempt
func (m *Metrics) RecordQuery(success bool) {
	m.WarehouseQueries.Add(1)
	if !success {
		m.WarehouseQueryErrors.Add(1)
	}
}

// RecordToken records one processed (token, project) pair
func (m *Metrics) RecordToken(success bool) {
	m.TokensProcessed.Add(1)
	if !success {
		m.TokensFailed.Add(1)
	}
}

// RecordSession records a fully analyzed session
func (m *Metrics) RecordSession() {
	m.SessionsAnalyzed.Add(1)
}

// RecordAnnotation records an annotator call attempt
func (m *Metrics) RecordAnnotation(success bool, durationMs int64) {
	m.AnnotatorCalls.Add(1)
	if !success {
		m.AnnotatorCallErrors.Add(1)
	}
	m.LastAnnotationDurationMs.Store(durationMs)
}

// RecordEmitted records written result records
func (m *Metrics) RecordEmitted(intents, errors int) {
	m.IntentsEmitted.Add(int64(intents))
	m.ErrorsEmitted.Add(int64(errors))
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		uptime := time.Since(m.startTime).Seconds()

		fmt.Fprintf(w, "# HELP sessionlens_uptime_seconds Time since the run started\n")
		fmt.Fprintf(w, "# TYPE sessionlens_uptime_seconds gauge\n")
		fmt.Fprintf(w, "sessionlens_uptime_seconds %.2f\n\n", uptime)

		fmt.Fprintf(w, "# HELP sessionlens_warehouse_queries_total Total warehouse queries\n")
		fmt.Fprintf(w, "# TYPE sessionlens_warehouse_queries_total counter\n")
		fmt.Fprintf(w, "sessionlens_warehouse_queries_total %d\n\n", m.WarehouseQueries.Load())

		fmt.Fprintf(w, "# HELP sessionlens_warehouse_query_errors_total Total failed warehouse queries\n")
		fmt.Fprintf(w, "# TYPE sessionlens_warehouse_query_errors_total counter\n")
		fmt.Fprintf(w, "sessionlens_warehouse_query_errors_total %d\n\n", m.WarehouseQueryErrors.Load())

		fmt.Fprintf(w, "# HELP sessionlens_tokens_processed_total Total processed (token, project) pairs\n")
		fmt.Fprintf(w, "# TYPE sessionlens_tokens_processed_total counter\n")
		fmt.Fprintf(w, "sessionlens_tokens_processed_total %d\n\n", m.TokensProcessed.Load())

		fmt.Fprintf(w, "# HELP sessionlens_tokens_failed_total Total tokens skipped after a fatal error\n")
		fmt.Fprintf(w, "# TYPE sessionlens_tokens_failed_total counter\n")
		fmt.Fprintf(w, "sessionlens_tokens_failed_total %d\n\n", m.TokensFailed.Load())

		fmt.Fprintf(w, "# HELP sessionlens_sessions_analyzed_total Total sessions run through the pipeline\n")
		fmt.Fprintf(w, "# TYPE sessionlens_sessions_analyzed_total counter\n")
		fmt.Fprintf(w, "sessionlens_sessions_analyzed_total %d\n\n", m.SessionsAnalyzed.Load())

		fmt.Fprintf(w, "# HELP sessionlens_annotator_calls_total Total annotator completion calls\n")
		fmt.Fprintf(w, "# TYPE sessionlens_annotator_calls_total counter\n")
		fmt.Fprintf(w, "sessionlens_annotator_calls_total %d\n\n", m.AnnotatorCalls.Load())

		fmt.Fprintf(w, "# HELP sessionlens_annotator_call_errors_total Total failed annotator calls\n")
		fmt.Fprintf(w, "# TYPE sessionlens_annotator_call_errors_total counter\n")
		fmt.Fprintf(w, "sessionlens_annotator_call_errors_total %d\n\n", m.AnnotatorCallErrors.Load())

		fmt.Fprintf(w, "# HELP sessionlens_intents_emitted_total Total intent records written\n")
		fmt.Fprintf(w, "# TYPE sessionlens_intents_emitted_total counter\n")
		fmt.Fprintf(w, "sessionlens_intents_emitted_total %d\n\n", m.IntentsEmitted.Load())

		fmt.Fprintf(w, "# HELP sessionlens_errors_emitted_total Total error records written\n")
		fmt.Fprintf(w, "# TYPE sessionlens_errors_emitted_total counter\n")
		fmt.Fprintf(w, "sessionlens_errors_emitted_total %d\n\n", m.ErrorsEmitted.Load())

		fmt.Fprintf(w, "# HELP sessionlens_last_annotation_duration_ms Last annotation duration\n")
		fmt.Fprintf(w, "# TYPE sessionlens_last_annotation_duration_ms gauge\n")
		fmt.Fprintf(w, "sessionlens_last_annotation_duration_ms %d\n", m.LastAnnotationDurationMs.Load())
	}
}

// Server wraps the metrics HTTP server
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server on the given port
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", Global().Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// Start starts the metrics server in background
func (s *Server) Start() error {
	go s.srv.ListenAndServe()
	return nil
}

// Stop gracefully shuts down the metrics server
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
