package api

import (
	"fmt"
	"net/http"

	"github.com/davembu/worklog/internal/export"
)

func (h *Handlers) ProjectTimesheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	from, to, ok := dayWindow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid from/to window")
		return
	}

	proj, err := h.projector.Project(userID, from, to)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to project timesheet")
		writeError(w, http.StatusInternalServerError, "Failed to project timesheet")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (h *Handlers) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	from, to, ok := dayWindow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid from/to window")
		return
	}

	proj, err := h.projector.Project(userID, from, to)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to project timesheet")
		writeError(w, http.StatusInternalServerError, "Failed to project timesheet")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="timesheet-%d-%s-%s.csv"`, userID, from, to))
		err = export.ToCSV(proj, w)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = export.ToJSON(proj, w)
	default:
		writeError(w, http.StatusBadRequest, "unknown format: "+format)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("format", format).Msg("Failed to write export")
	}
}

func (h *Handlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	from, to, ok := dayWindow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid from/to window")
		return
	}

	summaries, err := h.store.ListDailySummaries(userID, from, to)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to list summaries")
		writeError(w, http.StatusInternalServerError, "Failed to list summaries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summaries": summaries,
		"count":     len(summaries),
	})
}

// RecomputeSummary is the trigger collaborators call after changing data the
// aggregator reads. It is idempotent.
func (h *Handlers) RecomputeSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req struct {
		Day string `json:"day"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !validDay(req.Day) {
		writeError(w, http.StatusBadRequest, "invalid day, want YYYY-MM-DD")
		return
	}

	if err := h.agg.Recompute(userID, req.Day); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Str("day", req.Day).Msg("Failed to recompute summary")
		writeError(w, http.StatusInternalServerError, "Failed to recompute summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
