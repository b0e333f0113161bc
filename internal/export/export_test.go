package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/davembu/worklog/internal/timesheet"
)

func sampleProjection() *timesheet.Projection {
	return &timesheet.Projection{
		UserID: 1,
		From:   "2026-03-09",
		To:     "2026-03-10",
		Tasks: []timesheet.TaskSheet{
			{
				TaskID:       1,
				TaskName:     "coding",
				TotalSeconds: 5400,
				DaySeconds: map[string]int64{
					"2026-03-10": 1800,
					"2026-03-09": 3600,
				},
			},
			{
				TaskID:       2,
				TaskName:     "review",
				TotalSeconds: 300,
				DaySeconds:   map[string]int64{"2026-03-10": 300},
				Running:      true,
			},
		},
		TotalSeconds: 5700,
	}
}

func TestToCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ToCSV(sampleProjection(), &buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	// Header + one row per task per day
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "Task,Day,Seconds,Duration,Running" {
		t.Fatalf("unexpected header: %s", header)
	}

	// Days within a task come out sorted.
	if records[1][0] != "coding" || records[1][1] != "2026-03-09" || records[1][2] != "3600" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[1][3] != "01:00:00" {
		t.Fatalf("unexpected duration format: %s", records[1][3])
	}
	if records[2][1] != "2026-03-10" {
		t.Fatalf("days should be sorted: %v", records[2])
	}
	if records[3][4] != "yes" {
		t.Fatalf("running task should be marked: %v", records[3])
	}
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	proj := &timesheet.Projection{UserID: 1, From: "2026-03-09", To: "2026-03-09"}
	if err := ToCSV(proj, &buf); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("empty projection should produce only a header, got %d rows", len(records))
	}
}

func TestToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ToJSON(sampleProjection(), &buf); err != nil {
		t.Fatal(err)
	}

	var out struct {
		ExportedAt string `json:"exported_at"`
		UserID     int64  `json:"user_id"`
		From       string `json:"from"`
		To         string `json:"to"`
		Tasks      []struct {
			Task       string           `json:"task"`
			TotalSec   int64            `json:"total_seconds"`
			Total      string           `json:"total"`
			DaySeconds map[string]int64 `json:"day_seconds"`
			Running    bool             `json:"running"`
		} `json:"tasks"`
		TotalSec int64  `json:"total_seconds"`
		Total    string `json:"total"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if out.UserID != 1 || out.From != "2026-03-09" || out.To != "2026-03-10" {
		t.Fatalf("unexpected envelope: %+v", out)
	}
	if out.ExportedAt == "" {
		t.Fatal("exported_at should be set")
	}
	if out.TotalSec != 5700 || out.Total != "01:35:00" {
		t.Fatalf("unexpected totals: %d %s", out.TotalSec, out.Total)
	}
	if len(out.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(out.Tasks))
	}
	if out.Tasks[0].Task != "coding" || out.Tasks[0].DaySeconds["2026-03-09"] != 3600 {
		t.Fatalf("unexpected first task: %+v", out.Tasks[0])
	}
	if !out.Tasks[1].Running {
		t.Fatal("second task should be running")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
	}
	for _, c := range cases {
		if got := formatDuration(c.secs); got != c.want {
			t.Errorf("formatDuration(%d) = %s, want %s", c.secs, got, c.want)
		}
	}
}
