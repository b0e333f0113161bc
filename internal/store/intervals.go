package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const intervalCols = `id, user_id, task_id, start_time, end_time, duration, flagged, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterval(row rowScanner) (*TimeInterval, error) {
	iv := &TimeInterval{}
	var startTime, createdAt, updatedAt string
	var endTime sql.NullString
	var duration sql.NullInt64
	var flagged int

	err := row.Scan(&iv.ID, &iv.UserID, &iv.TaskID, &startTime, &endTime, &duration, &flagged, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	iv.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339, endTime.String)
		iv.EndTime = &t
	}
	if duration.Valid {
		iv.Duration = &duration.Int64
	}
	iv.Flagged = flagged == 1
	iv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	iv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return iv, nil
}

// OpenInterval returns the user's single open interval, or nil if the user
// is idle.
func OpenInterval(q Queryer, userID int64) (*TimeInterval, error) {
	row := q.QueryRow(
		`SELECT `+intervalCols+` FROM time_intervals WHERE user_id = ? AND end_time IS NULL`, userID,
	)
	iv, err := scanInterval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open interval: %w", err)
	}
	return iv, nil
}

// OpenIntervalFor is the untransacted form of OpenInterval, for pure reads.
func (s *Store) OpenIntervalFor(userID int64) (*TimeInterval, error) {
	return OpenInterval(s.db, userID)
}

// InsertInterval creates a new open interval and returns its id.
func InsertInterval(q Queryer, userID, taskID int64, start time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := q.Exec(
		`INSERT INTO time_intervals (user_id, task_id, start_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, taskID, start.UTC().Format(time.RFC3339), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert interval: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// CloseInterval sets end time and duration together; an interval is closed
// exactly once.
func CloseInterval(q Queryer, id int64, end time.Time, duration int64, flagged bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	f := 0
	if flagged {
		f = 1
	}
	_, err := q.Exec(
		`UPDATE time_intervals SET end_time = ?, duration = ?, flagged = ?, updated_at = ? WHERE id = ?`,
		end.UTC().Format(time.RFC3339), duration, f, now, id,
	)
	if err != nil {
		return fmt.Errorf("close interval %d: %w", id, err)
	}
	return nil
}

// GetIntervalOwned fetches an interval only if it belongs to userID.
func GetIntervalOwned(q Queryer, id, userID int64) (*TimeInterval, error) {
	row := q.QueryRow(
		`SELECT `+intervalCols+` FROM time_intervals WHERE id = ? AND user_id = ?`, id, userID,
	)
	iv, err := scanInterval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interval %d: %w", id, err)
	}
	return iv, nil
}

func (s *Store) GetInterval(id int64) (*TimeInterval, error) {
	row := s.db.QueryRow(`SELECT `+intervalCols+` FROM time_intervals WHERE id = ?`, id)
	iv, err := scanInterval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interval %d: %w", id, err)
	}
	return iv, nil
}

func (s *Store) ListIntervals(f IntervalFilter) ([]TimeInterval, error) {
	query := `SELECT ` + intervalCols + ` FROM time_intervals WHERE 1=1`
	var args []any

	if f.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, *f.UserID)
	}
	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if f.OpenOnly {
		query += ` AND end_time IS NULL`
	}
	query += ` ORDER BY start_time ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list intervals: %w", err)
	}
	defer rows.Close()

	var intervals []TimeInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, *iv)
	}
	return intervals, rows.Err()
}

// SumClosedSeconds totals the durations of closed intervals whose start
// falls on the given day.
func SumClosedSeconds(q Queryer, userID int64, day string) (int64, error) {
	dayStart, err := time.Parse(DayFormat, day)
	if err != nil {
		return 0, fmt.Errorf("bad day %q: %w", day, err)
	}
	nextDay := dayStart.AddDate(0, 0, 1)

	var total sql.NullInt64
	err = q.QueryRow(`
		SELECT COALESCE(SUM(duration), 0)
		FROM time_intervals
		WHERE user_id = ? AND end_time IS NOT NULL
		  AND start_time >= ? AND start_time < ?`,
		userID, dayStart.Format(time.RFC3339), nextDay.Format(time.RFC3339),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum closed seconds: %w", err)
	}
	return total.Int64, nil
}

// UpdateIntervalTimes rewrites a closed interval's bounds, recomputing its
// duration. Used for user edits of historical entries; the caller is
// responsible for re-aggregating the affected days.
func UpdateIntervalTimes(q Queryer, id int64, start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("interval %d: end before start", id)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	duration := int64(end.Sub(start).Seconds())
	res, err := q.Exec(
		`UPDATE time_intervals SET start_time = ?, end_time = ?, duration = ?, flagged = 0, updated_at = ?
		 WHERE id = ? AND end_time IS NOT NULL`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), duration, now, id,
	)
	if err != nil {
		return fmt.Errorf("update interval %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInterval removes a closed interval. The caller re-aggregates the
// affected day.
func DeleteInterval(q Queryer, id int64) error {
	res, err := q.Exec(`DELETE FROM time_intervals WHERE id = ? AND end_time IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("delete interval %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
