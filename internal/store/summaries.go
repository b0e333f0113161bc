package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetDailySummary returns the summary row for (userID, day), or nil when no
// recompute has run for that day yet.
func GetDailySummary(q Queryer, userID int64, day string) (*DailySummary, error) {
	d := &DailySummary{}
	err := q.QueryRow(`
		SELECT user_id, day, work_hours, wfh_hours, vacation_hours, sick_hours, other_hours
		FROM daily_summaries WHERE user_id = ? AND day = ?`,
		userID, day,
	).Scan(&d.UserID, &d.Day, &d.WorkHours, &d.WFHHours, &d.VacationHours, &d.SickHours, &d.OtherHours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily summary: %w", err)
	}
	return d, nil
}

// ReplaceDailySummary writes the full row for (userID, day), overwriting any
// previous one. The aggregator is the only caller; counters are never
// incremented in place.
func ReplaceDailySummary(q Queryer, d DailySummary) error {
	_, err := q.Exec(`
		INSERT INTO daily_summaries (user_id, day, work_hours, wfh_hours, vacation_hours, sick_hours, other_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			work_hours = excluded.work_hours,
			wfh_hours = excluded.wfh_hours,
			vacation_hours = excluded.vacation_hours,
			sick_hours = excluded.sick_hours,
			other_hours = excluded.other_hours`,
		d.UserID, d.Day, d.WorkHours, d.WFHHours, d.VacationHours, d.SickHours, d.OtherHours,
	)
	if err != nil {
		return fmt.Errorf("replace daily summary: %w", err)
	}
	return nil
}

// DailySummaryFor is the untransacted form of GetDailySummary, for pure
// reads.
func (s *Store) DailySummaryFor(userID int64, day string) (*DailySummary, error) {
	return GetDailySummary(s.db, userID, day)
}

// ListDailySummaries returns summary rows for a user in [fromDay, toDay],
// ordered by day.
func (s *Store) ListDailySummaries(userID int64, fromDay, toDay string) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT user_id, day, work_hours, wfh_hours, vacation_hours, sick_hours, other_hours
		FROM daily_summaries
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day`,
		userID, fromDay, toDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var d DailySummary
		if err := rows.Scan(&d.UserID, &d.Day, &d.WorkHours, &d.WFHHours, &d.VacationHours, &d.SickHours, &d.OtherHours); err != nil {
			return nil, err
		}
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}
