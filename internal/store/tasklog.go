package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"choreboard/internal/model"
	"choreboard/internal/task"
)

// TaskLogStore is the append-only completion ledger: the source of truth for
// points and for each task's last-completed state.
type TaskLogStore struct {
	db *sql.DB
}

func NewTaskLogStore(db *sql.DB) *TaskLogStore {
	return &TaskLogStore{db: db}
}

func scanTaskLog(scanner interface{ Scan(...any) error }) (*model.TaskLog, error) {
	var l model.TaskLog
	var coolOff int
	err := scanner.Scan(&l.ID, &l.HouseID, &l.TaskID, &l.UserID, &l.Value, &coolOff, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.CoolOff = coolOff != 0
	return &l, nil
}

const taskLogCols = `id, house_id, task_id, user_id, value, cool_off, created_at`

// RecordCompletion appends a ledger entry for the task. The awarded value
// and cool-off flag are snapshotted from the task's state before the cache
// mutates. The log insert, the task cache update, and the expiry of any
// supplied request/claim ids commit in one transaction.
func (s *TaskLogStore) RecordCompletion(houseID, taskID, userID int64, now time.Time, requestID, claimID *int64) (*model.TaskLog, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND house_id = ?`, taskID, houseID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("complete task %d: %w", taskID, ErrInvalidState)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	value := task.CurrentValue(*t, now)
	coolOff := 0
	if task.CoolOffActive(*t, now) {
		coolOff = 1
	}

	result, err := tx.Exec(
		`INSERT INTO task_logs (house_id, task_id, user_id, value, cool_off, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		houseID, taskID, userID, value, coolOff, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := setLastCompleted(tx, taskID, userID, now); err != nil {
		return nil, err
	}

	if claimID != nil {
		if _, err := tx.Exec(
			`UPDATE task_claims SET expired = 1 WHERE id = ? AND house_id = ?`,
			*claimID, houseID,
		); err != nil {
			return nil, fmt.Errorf("expire claim: %w", err)
		}
	}
	if requestID != nil {
		if _, err := tx.Exec(
			`UPDATE task_requests SET expired = 1 WHERE id = ? AND house_id = ?`,
			*requestID, houseID,
		); err != nil {
			return nil, fmt.Errorf("expire request: %w", err)
		}
	}

	logRow := tx.QueryRow(`SELECT `+taskLogCols+` FROM task_logs WHERE id = ?`, id)
	entry, err := scanTaskLog(logRow)
	if err != nil {
		return nil, fmt.Errorf("get task log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

// DeleteCompletion removes a ledger entry. The task's cached last-completed
// fields are recomputed only when the deleted entry is the cached one;
// deleting an older entry leaves the cache alone.
func (s *TaskLogStore) DeleteCompletion(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+taskLogCols+` FROM task_logs WHERE id = ?`, id)
	entry, err := scanTaskLog(row)
	if err == sql.ErrNoRows {
		return fmt.Errorf("delete completion %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get task log: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM task_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task log: %w", err)
	}

	var lastAt sql.NullTime
	err = tx.QueryRow(`SELECT last_completed_at FROM tasks WHERE id = ?`, entry.TaskID).Scan(&lastAt)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("get task cache: %w", err)
	}
	if err == nil && lastAt.Valid && lastAt.Time.Equal(entry.CreatedAt) {
		if err := refreshLastCompleted(tx, entry.TaskID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *TaskLogStore) GetByID(id int64) (*model.TaskLog, error) {
	row := s.db.QueryRow(`SELECT `+taskLogCols+` FROM task_logs WHERE id = ?`, id)
	entry, err := scanTaskLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task log: %w", err)
	}
	return entry, nil
}

// ListByHouse returns one page of the house's ledger, newest first.
func (s *TaskLogStore) ListByHouse(houseID int64, page, perPage int) ([]model.TaskLog, error) {
	if page < 1 {
		page = 1
	}
	rows, err := s.db.Query(
		`SELECT `+taskLogCols+` FROM task_logs WHERE house_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		houseID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, fmt.Errorf("list task logs: %w", err)
	}
	defer rows.Close()

	var entries []model.TaskLog
	for rows.Next() {
		entry, err := scanTaskLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task log: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// PointsByUser sums the awarded values for one user within one house. A user
// can belong to several houses, so entries elsewhere never contribute.
func (s *TaskLogStore) PointsByUser(userID, houseID int64) (int, error) {
	var points int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(value), 0) FROM task_logs WHERE user_id = ? AND house_id = ?`,
		userID, houseID,
	).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return points, nil
}

// PointsAllUsers maps every current member of the house to their point
// total, highest first. Members with no completions appear with zero.
func (s *TaskLogStore) PointsAllUsers(houseID int64) ([]model.UserPoints, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.username
		 FROM users u
		 JOIN memberships m ON u.id = m.user_id
		 WHERE m.house_id = ?
		 ORDER BY m.created_at ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list house members: %w", err)
	}
	defer rows.Close()

	var board []model.UserPoints
	for rows.Next() {
		var up model.UserPoints
		if err := rows.Scan(&up.UserID, &up.Username); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		board = append(board, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	for i := range board {
		pts, err := s.PointsByUser(board[i].UserID, houseID)
		if err != nil {
			return nil, err
		}
		board[i].Points = pts
	}

	// Ties keep membership order (oldest member first).
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Points > board[j].Points
	})

	return board, nil
}
