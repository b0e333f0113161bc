package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const absenceCols = `id, user_id, type, status, start_day, end_day, affects_hours, reason, created_at, updated_at`

func scanAbsence(row rowScanner) (*AbsenceRequest, error) {
	r := &AbsenceRequest{}
	var affects int
	var createdAt, updatedAt string

	err := row.Scan(&r.ID, &r.UserID, &r.Type, &r.Status, &r.StartDay, &r.EndDay, &affects, &r.Reason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.AffectsHours = affects == 1
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return r, nil
}

func (s *Store) CreateAbsenceRequest(r AbsenceRequest) (*AbsenceRequest, error) {
	if r.EndDay < r.StartDay {
		return nil, fmt.Errorf("absence request: end day %s before start day %s", r.EndDay, r.StartDay)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	affects := 0
	if r.AffectsHours {
		affects = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO absence_requests (user_id, type, status, start_day, end_day, affects_hours, reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Type, StatusPending, r.StartDay, r.EndDay, affects, r.Reason, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert absence request: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetAbsenceRequest(id)
}

func (s *Store) GetAbsenceRequest(id int64) (*AbsenceRequest, error) {
	row := s.db.QueryRow(`SELECT `+absenceCols+` FROM absence_requests WHERE id = ?`, id)
	r, err := scanAbsence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get absence request %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) ListAbsenceRequests(userID int64) ([]AbsenceRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+absenceCols+` FROM absence_requests WHERE user_id = ? ORDER BY start_day DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list absence requests: %w", err)
	}
	defer rows.Close()

	var reqs []AbsenceRequest
	for rows.Next() {
		r, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *r)
	}
	return reqs, rows.Err()
}

// SetAbsenceStatus records an approval decision made elsewhere. The caller
// re-aggregates every day in the request's range afterwards.
func (s *Store) SetAbsenceStatus(id int64, status AbsenceStatus) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE absence_requests SET status = ?, updated_at = ? WHERE id = ?`, status, now, id,
	)
	if err != nil {
		return fmt.Errorf("set absence status %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindApprovedHourAffecting returns the approved, hour-affecting request
// covering the given day, or nil. More than one overlapping request should
// not happen under approval-side validation; if it does, the most recently
// created one wins so resolution stays deterministic.
func FindApprovedHourAffecting(q Queryer, userID int64, day string) (*AbsenceRequest, error) {
	row := q.QueryRow(`
		SELECT `+absenceCols+`
		FROM absence_requests
		WHERE user_id = ? AND status = ? AND affects_hours = 1
		  AND start_day <= ? AND end_day >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		userID, StatusApproved, day, day,
	)
	r, err := scanAbsence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find absence for %s: %w", day, err)
	}
	return r, nil
}
