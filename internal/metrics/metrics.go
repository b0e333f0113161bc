package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Timer metrics
	TimerStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_timer_starts_total",
			Help: "Total timers started",
		},
	)

	TimerStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_timer_stops_total",
			Help: "Total timers stopped explicitly",
		},
	)

	TimerImplicitStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_timer_implicit_stops_total",
			Help: "Total open intervals closed implicitly by a new start",
		},
	)

	TimerRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_timer_tx_retries_total",
			Help: "Timer transactions retried after lock contention",
		},
	)

	ClockAnomalies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_clock_anomalies_total",
			Help: "Intervals whose duration was clamped to zero and flagged",
		},
	)

	// Aggregation metrics
	SummaryRecomputes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_summary_recomputes_total",
			Help: "Total daily summary recomputations",
		},
	)

	SummaryRecomputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worklog_summary_recompute_duration_seconds",
			Help:    "Daily summary recompute duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// API metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklog_http_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		TimerStarts,
		TimerStops,
		TimerImplicitStops,
		TimerRetries,
		ClockAnomalies,
		SummaryRecomputes,
		SummaryRecomputeDuration,
		HTTPRequests,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
