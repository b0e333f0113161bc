package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/davembu/worklog/internal/store"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"ok":    false,
		"error": message,
	})
}

// pathID parses an int64 path variable, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// validDay checks a YYYY-MM-DD day string.
func validDay(day string) bool {
	_, err := time.Parse(store.DayFormat, day)
	return err == nil
}

// dayWindow reads from/to query parameters, defaulting to the last 7 days.
func dayWindow(r *http.Request) (string, string, bool) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if from == "" && to == "" {
		now := time.Now().UTC()
		return store.DayOf(now.AddDate(0, 0, -6)), store.DayOf(now), true
	}
	if !validDay(from) || !validDay(to) || to < from {
		return "", "", false
	}
	return from, to, true
}
