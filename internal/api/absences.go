package api

import (
	"errors"
	"net/http"

	"github.com/davembu/worklog/internal/store"
)

func validAbsenceType(t store.AbsenceType) bool {
	switch t {
	case store.AbsenceVacation, store.AbsenceSickLeave, store.AbsenceWorkFromHome, store.AbsenceRemoteWork, store.AbsenceOther:
		return true
	}
	return false
}

func (h *Handlers) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req struct {
		Type         store.AbsenceType `json:"type"`
		StartDay     string            `json:"start_day"`
		EndDay       string            `json:"end_day"`
		AffectsHours bool              `json:"affects_hours"`
		Reason       string            `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !validAbsenceType(req.Type) {
		writeError(w, http.StatusBadRequest, "unknown absence type")
		return
	}
	if !validDay(req.StartDay) || !validDay(req.EndDay) {
		writeError(w, http.StatusBadRequest, "invalid start_day/end_day, want YYYY-MM-DD")
		return
	}
	if req.EndDay < req.StartDay {
		writeError(w, http.StatusBadRequest, "end_day before start_day")
		return
	}

	absence, err := h.store.CreateAbsenceRequest(store.AbsenceRequest{
		UserID:       userID,
		Type:         req.Type,
		StartDay:     req.StartDay,
		EndDay:       req.EndDay,
		AffectsHours: req.AffectsHours,
		Reason:       req.Reason,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to create absence request")
		writeError(w, http.StatusInternalServerError, "Failed to create absence request")
		return
	}
	writeJSON(w, http.StatusCreated, absence)
}

func (h *Handlers) ListAbsences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	absences, err := h.store.ListAbsenceRequests(userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to list absence requests")
		writeError(w, http.StatusInternalServerError, "Failed to list absence requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"absences": absences,
		"count":    len(absences),
	})
}

// SetAbsenceStatus records an approval decision. Moving an hour-affecting
// request into or out of APPROVED changes how its days classify, so those
// days are re-aggregated before the response goes out.
func (h *Handlers) SetAbsenceStatus(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	var req struct {
		Status store.AbsenceStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Status {
	case store.StatusApproved, store.StatusRejected, store.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "status must be APPROVED, REJECTED or CANCELLED")
		return
	}

	absence, err := h.store.GetAbsenceRequest(requestID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Absence request not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get absence request")
		return
	}
	if absence.Status == req.Status {
		writeJSON(w, http.StatusOK, absence)
		return
	}

	if err := h.store.SetAbsenceStatus(requestID, req.Status); err != nil {
		h.logger.Error().Err(err).Int64("request_id", requestID).Msg("Failed to set absence status")
		writeError(w, http.StatusInternalServerError, "Failed to set absence status")
		return
	}

	classificationChanged := absence.AffectsHours &&
		(req.Status == store.StatusApproved || absence.Status == store.StatusApproved)
	if classificationChanged {
		if err := h.agg.RecomputeRange(absence.UserID, absence.StartDay, absence.EndDay); err != nil {
			h.logger.Error().Err(err).Int64("request_id", requestID).Msg("Recompute after absence status change failed")
			writeError(w, http.StatusInternalServerError, "Failed to recompute summaries")
			return
		}
	}

	updated, err := h.store.GetAbsenceRequest(requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get absence request")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
