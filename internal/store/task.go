package store

import (
	"database/sql"
	"fmt"
	"time"

	"choreboard/internal/model"
)

// TaskStore owns task definitions per house, including the cached
// last-completed fields that mirror the most recent surviving log entry.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var lastAt sql.NullTime
	var lastBy sql.NullInt64

	err := scanner.Scan(
		&t.ID, &t.HouseID, &t.Name, &t.Description, &t.Value,
		&t.CoolOffPeriod, &t.CoolOffValue, &lastAt, &lastBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastAt.Valid {
		t.LastCompletedAt = &lastAt.Time
	}
	if lastBy.Valid {
		t.LastCompletedBy = &lastBy.Int64
	}
	return &t, nil
}

const taskCols = `id, house_id, name, description, value, cool_off_period, cool_off_value, last_completed_at, last_completed_by, created_at`

// Create adds a task definition. Task names are unique within a house;
// a collision returns ErrDuplicateName.
func (s *TaskStore) Create(houseID int64, name, description string, value, coolOffPeriod, coolOffValue int, now time.Time) (*model.Task, error) {
	var existing int64
	err := s.db.QueryRow(
		`SELECT id FROM tasks WHERE house_id = ? AND name = ?`,
		houseID, name,
	).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("create task %q: %w", name, ErrDuplicateName)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check task name: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (house_id, name, description, value, cool_off_period, cool_off_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		houseID, name, description, value, coolOffPeriod, coolOffValue, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByHouse(houseID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE house_id = ? ORDER BY created_at ASC, id ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// SetLastCompleted updates the cached completion fields. Called by the
// ledger on append, inside the same transaction as the log insert.
func (s *TaskStore) SetLastCompleted(taskID, userID int64, at time.Time) error {
	return setLastCompleted(s.db, taskID, userID, at)
}

// RefreshLastCompleted re-derives the cached fields from the most recent
// surviving log entry, clearing them when none remains.
func (s *TaskStore) RefreshLastCompleted(taskID int64) error {
	return refreshLastCompleted(s.db, taskID)
}

// execer is satisfied by both *sql.DB and *sql.Tx so cache maintenance can
// run inside the ledger's transactions.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func setLastCompleted(e execer, taskID, userID int64, at time.Time) error {
	result, err := e.Exec(
		`UPDATE tasks SET last_completed_at = ?, last_completed_by = ? WHERE id = ?`,
		at, userID, taskID,
	)
	if err != nil {
		return fmt.Errorf("set last completed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set last completed on task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

func refreshLastCompleted(e execer, taskID int64) error {
	var at time.Time
	var by int64
	err := e.QueryRow(
		`SELECT created_at, user_id FROM task_logs WHERE task_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		taskID,
	).Scan(&at, &by)
	if err == sql.ErrNoRows {
		if _, err := e.Exec(
			`UPDATE tasks SET last_completed_at = NULL, last_completed_by = NULL WHERE id = ?`,
			taskID,
		); err != nil {
			return fmt.Errorf("clear last completed: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("find latest completion: %w", err)
	}
	return setLastCompleted(e, taskID, by, at)
}
