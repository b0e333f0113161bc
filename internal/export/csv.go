package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/davembu/worklog/internal/timesheet"
)

// ToCSV writes a timesheet projection as one row per task per day.
func ToCSV(proj *timesheet.Projection, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Header
	if err := cw.Write([]string{"Task", "Day", "Seconds", "Duration", "Running"}); err != nil {
		return err
	}

	for _, sheet := range proj.Tasks {
		days := make([]string, 0, len(sheet.DaySeconds))
		for d := range sheet.DaySeconds {
			days = append(days, d)
		}
		sort.Strings(days)

		for _, d := range days {
			secs := sheet.DaySeconds[d]
			running := ""
			if sheet.Running {
				running = "yes"
			}
			row := []string{
				sheet.TaskName,
				d,
				fmt.Sprintf("%d", secs),
				formatDuration(secs),
				running,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	return cw.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
