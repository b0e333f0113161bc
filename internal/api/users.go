package api

import (
	"errors"
	"net/http"

	"github.com/davembu/worklog/internal/store"
)

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.store.CreateUser(req.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list users")
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	task, err := h.store.CreateTask(userID, req.Name)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to create task")
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	includeArchived := r.URL.Query().Get("archived") == "true"

	tasks, err := h.store.ListTasks(userID, includeArchived)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to list tasks")
		writeError(w, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// getOwnedTask loads a task and checks it belongs to userID, writing the
// error response itself on failure.
func (h *Handlers) getOwnedTask(w http.ResponseWriter, taskID, userID int64) (*store.Task, bool) {
	task, err := h.store.GetTask(taskID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && task.UserID != userID) {
		writeError(w, http.StatusNotFound, "Task not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("task_id", taskID).Msg("Failed to get task")
		writeError(w, http.StatusInternalServerError, "Failed to get task")
		return nil, false
	}
	return task, true
}

func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, ok := h.getOwnedTask(w, taskID, userID); !ok {
		return
	}

	if err := h.store.UpdateTask(taskID, req.Name); err != nil {
		h.logger.Error().Err(err).Int64("task_id", taskID).Msg("Failed to update task")
		writeError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}
	task, err := h.store.GetTask(taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	if _, ok := h.getOwnedTask(w, taskID, userID); !ok {
		return
	}

	if err := h.store.ArchiveTask(taskID); err != nil {
		h.logger.Error().Err(err).Int64("task_id", taskID).Msg("Failed to archive task")
		writeError(w, http.StatusInternalServerError, "Failed to archive task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
