package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const manualCols = `id, user_id, task_id, day, hours, classification, note, created_at, updated_at`

func scanManualEntry(row rowScanner) (*ManualEntry, error) {
	e := &ManualEntry{}
	var taskID sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.UserID, &taskID, &e.Day, &e.Hours, &e.Classification, &e.Note, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		e.TaskID = &taskID.Int64
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return e, nil
}

func (s *Store) CreateManualEntry(e ManualEntry) (*ManualEntry, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO manual_entries (user_id, task_id, day, hours, classification, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.TaskID, e.Day, e.Hours, e.Classification, e.Note, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert manual entry: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetManualEntry(id)
}

func (s *Store) GetManualEntry(id int64) (*ManualEntry, error) {
	row := s.db.QueryRow(`SELECT `+manualCols+` FROM manual_entries WHERE id = ?`, id)
	e, err := scanManualEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get manual entry %d: %w", id, err)
	}
	return e, nil
}

func (s *Store) UpdateManualEntry(id int64, day string, hours float64, classification Classification, note string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE manual_entries SET day = ?, hours = ?, classification = ?, note = ?, updated_at = ? WHERE id = ?`,
		day, hours, classification, note, now, id,
	)
	if err != nil {
		return fmt.Errorf("update manual entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteManualEntry(id int64) error {
	res, err := s.db.Exec(`DELETE FROM manual_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete manual entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListManualEntries(userID int64, day string) ([]ManualEntry, error) {
	query := `SELECT ` + manualCols + ` FROM manual_entries WHERE user_id = ?`
	args := []any{userID}
	if day != "" {
		query += ` AND day = ?`
		args = append(args, day)
	}
	query += ` ORDER BY day, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list manual entries: %w", err)
	}
	defer rows.Close()

	var entries []ManualEntry
	for rows.Next() {
		e, err := scanManualEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SumManualHours totals a user's manual hours for one day, keyed by the
// classification recorded on each entry.
func SumManualHours(q Queryer, userID int64, day string) (map[Classification]float64, error) {
	rows, err := q.Query(`
		SELECT classification, COALESCE(SUM(hours), 0)
		FROM manual_entries
		WHERE user_id = ? AND day = ?
		GROUP BY classification`,
		userID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("sum manual hours: %w", err)
	}
	defer rows.Close()

	sums := make(map[Classification]float64)
	for rows.Next() {
		var c Classification
		var h float64
		if err := rows.Scan(&c, &h); err != nil {
			return nil, err
		}
		sums[c] = h
	}
	return sums, rows.Err()
}
