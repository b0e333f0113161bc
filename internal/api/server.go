// Package api exposes the engine's boundary operations over HTTP. Handlers
// translate domain errors into structured JSON results; no error crosses the
// boundary as a panic or a bare 500 string.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/davembu/worklog/internal/metrics"
	"github.com/davembu/worklog/internal/store"
	"github.com/davembu/worklog/internal/summary"
	"github.com/davembu/worklog/internal/timer"
	"github.com/davembu/worklog/internal/timesheet"
)

// Server is the HTTP API server.
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// Handlers bundles the engine services the API fronts.
type Handlers struct {
	store     *store.Store
	timer     *timer.Service
	agg       *summary.Aggregator
	projector *timesheet.Projector
	logger    zerolog.Logger
}

func NewHandlers(s *store.Store, t *timer.Service, agg *summary.Aggregator, p *timesheet.Projector, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:     s,
		timer:     t,
		agg:       agg,
		projector: p,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// NewServer wires the routes and returns a server ready to Start.
func NewServer(addr string, h *Handlers, logger zerolog.Logger) *Server {
	r := mux.NewRouter()
	r.Use(requestMetrics)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	v1.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/tasks", h.CreateTask).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/tasks", h.ListTasks).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/tasks/{taskID}", h.UpdateTask).Methods(http.MethodPut)
	v1.HandleFunc("/users/{userID}/tasks/{taskID}", h.ArchiveTask).Methods(http.MethodDelete)

	v1.HandleFunc("/users/{userID}/timer/start", h.StartTimer).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/timer/stop", h.StopTimer).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/timer", h.GetActiveTimer).Methods(http.MethodGet)

	v1.HandleFunc("/users/{userID}/timesheet", h.ProjectTimesheet).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/timesheet/export", h.ExportTimesheet).Methods(http.MethodGet)

	v1.HandleFunc("/users/{userID}/summaries", h.ListSummaries).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/summaries/recompute", h.RecomputeSummary).Methods(http.MethodPost)

	v1.HandleFunc("/users/{userID}/entries", h.CreateManualEntry).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/entries", h.ListManualEntries).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/entries/{entryID}", h.UpdateManualEntry).Methods(http.MethodPut)
	v1.HandleFunc("/users/{userID}/entries/{entryID}", h.DeleteManualEntry).Methods(http.MethodDelete)

	v1.HandleFunc("/users/{userID}/intervals/{intervalID}", h.UpdateInterval).Methods(http.MethodPut)
	v1.HandleFunc("/users/{userID}/intervals/{intervalID}", h.DeleteInterval).Methods(http.MethodDelete)

	v1.HandleFunc("/users/{userID}/absences", h.CreateAbsence).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/absences", h.ListAbsences).Methods(http.MethodGet)
	v1.HandleFunc("/absences/{requestID}/status", h.SetAbsenceStatus).Methods(http.MethodPost)

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop stops the API server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")
	return s.server.Close()
}

// requestMetrics records per-route request counters.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
