package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/davembu/worklog/internal/absence"
	"github.com/davembu/worklog/internal/store"
	"github.com/davembu/worklog/internal/summary"
	"github.com/davembu/worklog/internal/timer"
	"github.com/davembu/worklog/internal/timesheet"
)

func newTestAPI(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := zerolog.Nop()
	agg := summary.NewAggregator(s, absence.NewResolver(logger), logger)
	h := NewHandlers(s, timer.NewService(s, agg, logger), agg, timesheet.NewProjector(s), logger)
	srv := NewServer("127.0.0.1:0", h, logger)

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts, s
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createUserAndTask(t *testing.T, ts *httptest.Server) (int64, int64) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users", map[string]string{"name": "alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user: status %d", resp.StatusCode)
	}
	var user struct{ ID int64 }
	decode(t, resp, &user)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/users/%d/tasks", ts.URL, user.ID), map[string]string{"name": "coding"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task: status %d", resp.StatusCode)
	}
	var task struct{ ID int64 }
	decode(t, resp, &task)
	return user.ID, task.ID
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestAPI(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTimerFlow(t *testing.T) {
	ts, _ := newTestAPI(t)
	userID, taskID := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	// Start
	resp := doJSON(t, http.MethodPost, base+"/timer/start", map[string]int64{"task_id": taskID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	var started struct {
		Interval struct{ ID int64 } `json:"interval"`
	}
	decode(t, resp, &started)

	// Active shows the running interval
	resp = doJSON(t, http.MethodGet, base+"/timer", nil)
	var active struct {
		Interval *struct{ ID int64 } `json:"interval"`
	}
	decode(t, resp, &active)
	if active.Interval == nil || active.Interval.ID != started.Interval.ID {
		t.Fatalf("unexpected active interval: %+v", active)
	}

	// Stop
	resp = doJSON(t, http.MethodPost, base+"/timer/stop", map[string]int64{"interval_id": started.Interval.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: status %d", resp.StatusCode)
	}

	// Second stop conflicts
	resp = doJSON(t, http.MethodPost, base+"/timer/stop", map[string]int64{"interval_id": started.Interval.ID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for double stop, got %d", resp.StatusCode)
	}

	// Idle: interval is null, not an error
	resp = doJSON(t, http.MethodGet, base+"/timer", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("idle timer read: status %d", resp.StatusCode)
	}
	decode(t, resp, &active)
	if active.Interval != nil {
		t.Fatalf("expected null interval when idle, got %+v", active.Interval)
	}
}

func TestStartUnknownTask(t *testing.T) {
	ts, _ := newTestAPI(t)
	userID, _ := createUserAndTask(t, ts)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/users/%d/timer/start", ts.URL, userID), map[string]int64{"task_id": 999})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTaskUpdateAndArchive(t *testing.T) {
	ts, s := newTestAPI(t)
	userID, taskID := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/tasks/%d", base, taskID), map[string]string{"name": "refactoring"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update task: status %d", resp.StatusCode)
	}
	task, err := s.GetTask(taskID)
	if err != nil || task.Name != "refactoring" {
		t.Fatalf("task not renamed: %+v %v", task, err)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/tasks/%d", base, taskID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive task: status %d", resp.StatusCode)
	}
	task, _ = s.GetTask(taskID)
	if !task.Archived {
		t.Fatal("task should be archived")
	}

	// Another user cannot touch it.
	other, _ := s.CreateUser("mallory")
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/v1/users/%d/tasks/%d", ts.URL, other.ID, taskID), map[string]string{"name": "stolen"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign task should read as not found, got %d", resp.StatusCode)
	}
}

func TestManualEntryFlow(t *testing.T) {
	ts, s := newTestAPI(t)
	userID, _ := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	resp := doJSON(t, http.MethodPost, base+"/entries", map[string]interface{}{
		"day": "2026-03-09", "hours": 2.5, "classification": "WORK",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create entry: status %d", resp.StatusCode)
	}
	var entry struct{ ID int64 }
	decode(t, resp, &entry)

	// The write re-aggregated the day.
	sum, err := s.DailySummaryFor(userID, "2026-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if sum == nil || sum.WorkHours != 2.5 {
		t.Fatalf("summary not recomputed: %+v", sum)
	}

	// Moving the entry re-aggregates both days.
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/entries/%d", base, entry.ID), map[string]interface{}{
		"day": "2026-03-10", "hours": 2.5, "classification": "WORK",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update entry: status %d", resp.StatusCode)
	}
	oldDay, _ := s.DailySummaryFor(userID, "2026-03-09")
	newDay, _ := s.DailySummaryFor(userID, "2026-03-10")
	if oldDay.WorkHours != 0 || newDay.WorkHours != 2.5 {
		t.Fatalf("move did not re-aggregate both days: %+v %+v", oldDay, newDay)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/entries/%d", base, entry.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete entry: status %d", resp.StatusCode)
	}
	newDay, _ = s.DailySummaryFor(userID, "2026-03-10")
	if newDay.WorkHours != 0 {
		t.Fatalf("delete did not re-aggregate: %+v", newDay)
	}
}

func TestManualEntryValidation(t *testing.T) {
	ts, _ := newTestAPI(t)
	userID, _ := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	cases := []map[string]interface{}{
		{"day": "03/09/2026", "hours": 1},
		{"day": "2026-03-09", "hours": -1},
		{"day": "2026-03-09", "hours": 1, "classification": "HOLIDAY"},
	}
	for _, body := range cases {
		resp := doJSON(t, http.MethodPost, base+"/entries", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, resp.StatusCode)
		}
	}
}

func TestAbsenceFlow(t *testing.T) {
	ts, s := newTestAPI(t)
	userID, taskID := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	// Track two hours on the day the absence will cover.
	err := s.WithTx(func(q store.Queryer) error {
		start := mustParse(t, "2026-03-09T09:00:00Z")
		id, err := store.InsertInterval(q, userID, taskID, start)
		if err != nil {
			return err
		}
		return store.CloseInterval(q, id, start.Add(2*time.Hour), 7200, false)
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, http.MethodPost, base+"/absences", map[string]interface{}{
		"type": "VACATION", "start_day": "2026-03-09", "end_day": "2026-03-09", "affects_hours": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create absence: status %d", resp.StatusCode)
	}
	var req struct {
		ID     int64
		Status store.AbsenceStatus
	}
	decode(t, resp, &req)
	if req.Status != store.StatusPending {
		t.Fatalf("new request should be PENDING, got %s", req.Status)
	}

	// Approving reclassifies the covered day.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/absences/%d/status", ts.URL, req.ID), map[string]string{"status": "APPROVED"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: status %d", resp.StatusCode)
	}
	sum, _ := s.DailySummaryFor(userID, "2026-03-09")
	if sum == nil || sum.VacationHours != 2 || sum.WorkHours != 0 {
		t.Fatalf("approval did not reclassify: %+v", sum)
	}

	// Cancelling moves the hours back.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/absences/%d/status", ts.URL, req.ID), map[string]string{"status": "CANCELLED"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status %d", resp.StatusCode)
	}
	sum, _ = s.DailySummaryFor(userID, "2026-03-09")
	if sum.VacationHours != 0 || sum.WorkHours != 2 {
		t.Fatalf("cancellation did not declassify: %+v", sum)
	}
}

func TestAbsenceValidation(t *testing.T) {
	ts, _ := newTestAPI(t)
	userID, _ := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	resp := doJSON(t, http.MethodPost, base+"/absences", map[string]interface{}{
		"type": "LONG_WEEKEND", "start_day": "2026-03-09", "end_day": "2026-03-09",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, base+"/absences", map[string]interface{}{
		"type": "VACATION", "start_day": "2026-03-11", "end_day": "2026-03-09",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/absences/999/status", map[string]string{"status": "APPROVED"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown request, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/absences/999/status", map[string]string{"status": "PENDING"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid target status, got %d", resp.StatusCode)
	}
}

func TestTimesheetExportCSV(t *testing.T) {
	ts, s := newTestAPI(t)
	userID, taskID := createUserAndTask(t, ts)

	err := s.WithTx(func(q store.Queryer) error {
		start := mustParse(t, "2026-03-09T09:00:00Z")
		id, err := store.InsertInterval(q, userID, taskID, start)
		if err != nil {
			return err
		}
		return store.CloseInterval(q, id, start.Add(time.Hour), 3600, false)
	})
	if err != nil {
		t.Fatal(err)
	}

	url := fmt.Sprintf("%s/api/v1/users/%d/timesheet/export?from=2026-03-09&to=2026-03-09", ts.URL, userID)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("expected csv attachment, got %s", cd)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "coding,2026-03-09,3600") {
		t.Fatalf("unexpected csv body:\n%s", buf.String())
	}
}

func TestTimesheetBadWindow(t *testing.T) {
	ts, _ := newTestAPI(t)
	userID, _ := createUserAndTask(t, ts)

	url := fmt.Sprintf("%s/api/v1/users/%d/timesheet?from=2026-03-10&to=2026-03-09", ts.URL, userID)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted window, got %d", resp.StatusCode)
	}
}

func TestRecomputeEndpoint(t *testing.T) {
	ts, s := newTestAPI(t)
	userID, _ := createUserAndTask(t, ts)
	base := fmt.Sprintf("%s/api/v1/users/%d", ts.URL, userID)

	resp := doJSON(t, http.MethodPost, base+"/summaries/recompute", map[string]string{"day": "2026-03-09"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recompute: status %d", resp.StatusCode)
	}
	sum, _ := s.DailySummaryFor(userID, "2026-03-09")
	if sum == nil {
		t.Fatal("recompute should have written a row")
	}

	resp = doJSON(t, http.MethodPost, base+"/summaries/recompute", map[string]string{"day": "yesterday"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad day, got %d", resp.StatusCode)
	}
}
