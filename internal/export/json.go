package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/davembu/worklog/internal/timesheet"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	UserID     int64      `json:"user_id"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Tasks      []jsonTask `json:"tasks"`
	TotalSec   int64      `json:"total_seconds"`
	Total      string     `json:"total"`
}

type jsonTask struct {
	TaskID     int64            `json:"task_id"`
	Task       string           `json:"task"`
	TotalSec   int64            `json:"total_seconds"`
	Total      string           `json:"total"`
	DaySeconds map[string]int64 `json:"day_seconds"`
	Running    bool             `json:"running,omitempty"`
}

// ToJSON writes a timesheet projection as an indented JSON document.
func ToJSON(proj *timesheet.Projection, w io.Writer) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		UserID:     proj.UserID,
		From:       proj.From,
		To:         proj.To,
		TotalSec:   proj.TotalSeconds,
		Total:      formatDuration(proj.TotalSeconds),
	}

	for _, sheet := range proj.Tasks {
		export.Tasks = append(export.Tasks, jsonTask{
			TaskID:     sheet.TaskID,
			Task:       sheet.TaskName,
			TotalSec:   sheet.TotalSeconds,
			Total:      formatDuration(sheet.TotalSeconds),
			DaySeconds: sheet.DaySeconds,
			Running:    sheet.Running,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
