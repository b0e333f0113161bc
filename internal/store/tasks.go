package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) CreateTask(userID int64, name string) (*Task, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO tasks (user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t := &Task{}
	var createdAt, updatedAt string
	var archived int
	err := s.db.QueryRow(
		`SELECT id, user_id, name, archived, created_at, updated_at FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &archived, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	t.Archived = archived == 1
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

// TaskOwnedBy reports whether the task exists and belongs to userID.
func TaskOwnedBy(q Queryer, taskID, userID int64) (bool, error) {
	var n int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check task ownership: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListTasks(userID int64, includeArchived bool) ([]Task, error) {
	query := `SELECT id, user_id, name, archived, created_at, updated_at FROM tasks WHERE user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var createdAt, updatedAt string
		var archived int
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &archived, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.Archived = archived == 1
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(id int64, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, updated_at = ? WHERE id = ?`, name, now, id,
	)
	return err
}

func (s *Store) ArchiveTask(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET archived = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}
