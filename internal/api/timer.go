package api

import (
	"errors"
	"net/http"

	"github.com/davembu/worklog/internal/timer"
)

func (h *Handlers) StartTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req struct {
		TaskID int64 `json:"task_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	iv, err := h.timer.Start(userID, req.TaskID)
	if errors.Is(err, timer.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Int64("task_id", req.TaskID).Msg("Failed to start timer")
		writeError(w, http.StatusInternalServerError, "Failed to start timer")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"ok":       true,
		"interval": iv,
	})
}

func (h *Handlers) StopTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req struct {
		IntervalID int64 `json:"interval_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	iv, err := h.timer.Stop(userID, req.IntervalID)
	if errors.Is(err, timer.ErrIntervalNotFound) {
		writeError(w, http.StatusNotFound, "Interval not found")
		return
	}
	if errors.Is(err, timer.ErrAlreadyStopped) {
		writeError(w, http.StatusConflict, "Interval already stopped")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Int64("interval_id", req.IntervalID).Msg("Failed to stop timer")
		writeError(w, http.StatusInternalServerError, "Failed to stop timer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"interval": iv,
	})
}

// GetActiveTimer returns the running interval, or interval: null when idle.
// "No active timer" is not an error.
func (h *Handlers) GetActiveTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	iv, err := h.timer.Active(userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get active timer")
		writeError(w, http.StatusInternalServerError, "Failed to get active timer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interval": iv,
	})
}
