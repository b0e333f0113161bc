// Package timesheet builds read-only projections of a user's intervals,
// grouped by task and calendar day, for reporting and export.
package timesheet

import (
	"sort"
	"time"

	"github.com/davembu/worklog/internal/store"
)

// TaskSheet is one task's share of a projection window.
type TaskSheet struct {
	TaskID       int64            `json:"task_id"`
	TaskName     string           `json:"task_name"`
	TotalSeconds int64            `json:"total_seconds"`
	DaySeconds   map[string]int64 `json:"day_seconds"`
	// Running is set when the task's open interval contributed a live,
	// unpersisted elapsed time to the totals.
	Running bool `json:"running"`
}

// Projection groups a user's intervals in [From, To] by task and day. The
// open interval, if any, contributes its elapsed-so-far without being
// written anywhere.
type Projection struct {
	UserID       int64       `json:"user_id"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Tasks        []TaskSheet `json:"tasks"`
	TotalSeconds int64       `json:"total_seconds"`
}

type Projector struct {
	store *store.Store
	now   func() time.Time
}

func NewProjector(s *store.Store) *Projector {
	return &Projector{store: s, now: time.Now}
}

// Project reads all intervals for userID whose start day falls in
// [fromDay, toDay] and groups them. It never mutates the interval store.
func (p *Projector) Project(userID int64, fromDay, toDay string) (*Projection, error) {
	from, err := time.Parse(store.DayFormat, fromDay)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(store.DayFormat, toDay)
	if err != nil {
		return nil, err
	}
	windowEnd := to.AddDate(0, 0, 1)

	intervals, err := p.store.ListIntervals(store.IntervalFilter{
		UserID: &userID,
		From:   &from,
		To:     &windowEnd,
	})
	if err != nil {
		return nil, err
	}

	tasks, err := p.store.ListTasks(userID, true)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(tasks))
	for _, t := range tasks {
		names[t.ID] = t.Name
	}

	proj := &Projection{UserID: userID, From: fromDay, To: toDay}
	byTask := make(map[int64]*TaskSheet)

	for _, iv := range intervals {
		var secs int64
		running := false
		switch {
		case iv.Duration != nil:
			secs = *iv.Duration
		case iv.EndTime == nil:
			// Live elapsed time for the open interval; provisional only.
			secs = int64(p.now().UTC().Sub(iv.StartTime).Seconds())
			if secs < 0 {
				secs = 0
			}
			running = true
		}

		sheet, ok := byTask[iv.TaskID]
		if !ok {
			sheet = &TaskSheet{
				TaskID:     iv.TaskID,
				TaskName:   names[iv.TaskID],
				DaySeconds: make(map[string]int64),
			}
			byTask[iv.TaskID] = sheet
		}
		day := store.DayOf(iv.StartTime)
		sheet.DaySeconds[day] += secs
		sheet.TotalSeconds += secs
		sheet.Running = sheet.Running || running
		proj.TotalSeconds += secs
	}

	for _, sheet := range byTask {
		proj.Tasks = append(proj.Tasks, *sheet)
	}
	sort.Slice(proj.Tasks, func(i, j int) bool {
		if proj.Tasks[i].TaskName != proj.Tasks[j].TaskName {
			return proj.Tasks[i].TaskName < proj.Tasks[j].TaskName
		}
		return proj.Tasks[i].TaskID < proj.Tasks[j].TaskID
	})
	return proj, nil
}
