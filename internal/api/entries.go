package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/davembu/worklog/internal/store"
)

func validClassification(c store.Classification) bool {
	switch c {
	case store.ClassWork, store.ClassWorkFromHome, store.ClassVacation, store.ClassSickLeave, store.ClassOther:
		return true
	}
	return false
}

func (h *Handlers) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req struct {
		TaskID         *int64               `json:"task_id"`
		Day            string               `json:"day"`
		Hours          float64              `json:"hours"`
		Classification store.Classification `json:"classification"`
		Note           string               `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !validDay(req.Day) {
		writeError(w, http.StatusBadRequest, "invalid day, want YYYY-MM-DD")
		return
	}
	if req.Hours < 0 {
		writeError(w, http.StatusBadRequest, "hours must not be negative")
		return
	}
	if req.Classification == "" {
		req.Classification = store.ClassWork
	}
	if !validClassification(req.Classification) {
		writeError(w, http.StatusBadRequest, "unknown classification")
		return
	}

	entry, err := h.store.CreateManualEntry(store.ManualEntry{
		UserID:         userID,
		TaskID:         req.TaskID,
		Day:            req.Day,
		Hours:          req.Hours,
		Classification: req.Classification,
		Note:           req.Note,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to create manual entry")
		writeError(w, http.StatusInternalServerError, "Failed to create manual entry")
		return
	}

	if err := h.agg.Recompute(userID, req.Day); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Str("day", req.Day).Msg("Recompute after manual entry failed")
		writeError(w, http.StatusInternalServerError, "Failed to recompute summary")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handlers) ListManualEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	day := r.URL.Query().Get("day")
	if day != "" && !validDay(day) {
		writeError(w, http.StatusBadRequest, "invalid day, want YYYY-MM-DD")
		return
	}

	entries, err := h.store.ListManualEntries(userID, day)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to list manual entries")
		writeError(w, http.StatusInternalServerError, "Failed to list manual entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *Handlers) UpdateManualEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}
	var req struct {
		Day            string               `json:"day"`
		Hours          float64              `json:"hours"`
		Classification store.Classification `json:"classification"`
		Note           string               `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !validDay(req.Day) || req.Hours < 0 || !validClassification(req.Classification) {
		writeError(w, http.StatusBadRequest, "invalid entry fields")
		return
	}

	existing, err := h.store.GetManualEntry(entryID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && existing.UserID != userID) {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("entry_id", entryID).Msg("Failed to get manual entry")
		writeError(w, http.StatusInternalServerError, "Failed to get manual entry")
		return
	}

	if err := h.store.UpdateManualEntry(entryID, req.Day, req.Hours, req.Classification, req.Note); err != nil {
		h.logger.Error().Err(err).Int64("entry_id", entryID).Msg("Failed to update manual entry")
		writeError(w, http.StatusInternalServerError, "Failed to update manual entry")
		return
	}

	// An update can move the entry to another day; both days change.
	if err := h.agg.Recompute(userID, existing.Day); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute summary")
		return
	}
	if req.Day != existing.Day {
		if err := h.agg.Recompute(userID, req.Day); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to recompute summary")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (h *Handlers) DeleteManualEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}

	existing, err := h.store.GetManualEntry(entryID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && existing.UserID != userID) {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get manual entry")
		return
	}

	if err := h.store.DeleteManualEntry(entryID); err != nil {
		h.logger.Error().Err(err).Int64("entry_id", entryID).Msg("Failed to delete manual entry")
		writeError(w, http.StatusInternalServerError, "Failed to delete manual entry")
		return
	}
	if err := h.agg.Recompute(userID, existing.Day); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// UpdateInterval edits a closed historical interval and re-aggregates the
// affected day(s) in the same transaction.
func (h *Handlers) UpdateInterval(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	intervalID, ok := pathID(w, r, "intervalID")
	if !ok {
		return
	}
	var req struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.End.Before(req.Start) {
		writeError(w, http.StatusBadRequest, "end before start")
		return
	}

	existing, err := h.store.GetInterval(intervalID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && existing.UserID != userID) {
		writeError(w, http.StatusNotFound, "Interval not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get interval")
		return
	}
	if existing.EndTime == nil {
		writeError(w, http.StatusConflict, "Cannot edit a running interval")
		return
	}

	oldDay := store.DayOf(existing.StartTime)
	newDay := store.DayOf(req.Start)
	err = h.store.WithTx(func(q store.Queryer) error {
		if err := store.UpdateIntervalTimes(q, intervalID, req.Start, req.End); err != nil {
			return err
		}
		if err := h.agg.RecomputeTx(q, userID, oldDay); err != nil {
			return err
		}
		if newDay != oldDay {
			return h.agg.RecomputeTx(q, userID, newDay)
		}
		return nil
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("interval_id", intervalID).Msg("Failed to update interval")
		writeError(w, http.StatusInternalServerError, "Failed to update interval")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// DeleteInterval removes a closed historical interval and re-aggregates its
// day in the same transaction.
func (h *Handlers) DeleteInterval(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	intervalID, ok := pathID(w, r, "intervalID")
	if !ok {
		return
	}

	existing, err := h.store.GetInterval(intervalID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && existing.UserID != userID) {
		writeError(w, http.StatusNotFound, "Interval not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get interval")
		return
	}
	if existing.EndTime == nil {
		writeError(w, http.StatusConflict, "Cannot delete a running interval; stop it first")
		return
	}

	day := store.DayOf(existing.StartTime)
	err = h.store.WithTx(func(q store.Queryer) error {
		if err := store.DeleteInterval(q, intervalID); err != nil {
			return err
		}
		return h.agg.RecomputeTx(q, userID, day)
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("interval_id", intervalID).Msg("Failed to delete interval")
		writeError(w, http.StatusInternalServerError, "Failed to delete interval")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
