package store

import (
	"database/sql"
	"fmt"
	"time"

	"choreboard/internal/intent"
	"choreboard/internal/model"
)

// IntentStore tracks task requests and claims. Both kinds share one schema
// shape and one lazy expiry sweep; there is no background timer, every read
// path sweeps first.
type IntentStore struct {
	db *sql.DB
}

func NewIntentStore(db *sql.DB) *IntentStore {
	return &IntentStore{db: db}
}

const (
	requestTable = "task_requests"
	claimTable   = "task_claims"
)

func scanIntent(scanner interface{ Scan(...any) error }) (*model.Intent, error) {
	var in model.Intent
	var expired int
	err := scanner.Scan(&in.ID, &in.HouseID, &in.TaskID, &in.UserID, &expired, &in.CreatedAt)
	if err != nil {
		return nil, err
	}
	in.Expired = expired != 0
	return &in, nil
}

const intentCols = `id, house_id, task_id, user_id, expired, created_at`

// sweep marks every stale row in the house expired. Idempotent; safe to run
// from concurrent readers.
func sweep(e execer, table string, houseID int64, now time.Time) error {
	_, err := e.Exec(
		`UPDATE `+table+` SET expired = 1 WHERE house_id = ? AND expired = 0 AND created_at < ?`,
		houseID, intent.Cutoff(now),
	)
	if err != nil {
		return fmt.Errorf("sweep %s: %w", table, err)
	}
	return nil
}

func (s *IntentStore) listActive(table string, houseID int64, now time.Time) ([]model.Intent, error) {
	if err := sweep(s.db, table, houseID, now); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT `+intentCols+` FROM `+table+` WHERE house_id = ? AND expired = 0 ORDER BY created_at ASC, id ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var intents []model.Intent
	for rows.Next() {
		in, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		intents = append(intents, *in)
	}
	return intents, rows.Err()
}

// ActiveRequests returns the house's surviving requests, oldest first.
func (s *IntentStore) ActiveRequests(houseID int64, now time.Time) ([]model.TaskRequest, error) {
	intents, err := s.listActive(requestTable, houseID, now)
	if err != nil {
		return nil, err
	}
	reqs := make([]model.TaskRequest, len(intents))
	for i, in := range intents {
		reqs[i] = model.TaskRequest{Intent: in}
	}
	return reqs, nil
}

// ActiveClaims returns the house's surviving claims, oldest first.
func (s *IntentStore) ActiveClaims(houseID int64, now time.Time) ([]model.TaskClaim, error) {
	intents, err := s.listActive(claimTable, houseID, now)
	if err != nil {
		return nil, err
	}
	claims := make([]model.TaskClaim, len(intents))
	for i, in := range intents {
		claims[i] = model.TaskClaim{Intent: in}
	}
	return claims, nil
}

// create enforces at most one active intent per task per kind, inside the
// same transaction as the sweep that could free the slot.
func (s *IntentStore) create(table string, houseID, taskID, userID int64, now time.Time) (*model.Intent, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := sweep(tx, table, houseID, now); err != nil {
		return nil, err
	}

	var existing int64
	err = tx.QueryRow(
		`SELECT id FROM `+table+` WHERE task_id = ? AND expired = 0`,
		taskID,
	).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("task %d already has an active intent: %w", taskID, ErrInvalidState)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check active intent: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO `+table+` (house_id, task_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		houseID, taskID, userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+intentCols+` FROM `+table+` WHERE id = ?`, id)
	in, err := scanIntent(row)
	if err != nil {
		return nil, fmt.Errorf("get intent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return in, nil
}

func (s *IntentStore) CreateRequest(houseID, taskID, userID int64, now time.Time) (*model.TaskRequest, error) {
	in, err := s.create(requestTable, houseID, taskID, userID, now)
	if err != nil {
		return nil, err
	}
	return &model.TaskRequest{Intent: *in}, nil
}

func (s *IntentStore) CreateClaim(houseID, taskID, userID int64, now time.Time) (*model.TaskClaim, error) {
	in, err := s.create(claimTable, houseID, taskID, userID, now)
	if err != nil {
		return nil, err
	}
	return &model.TaskClaim{Intent: *in}, nil
}

func (s *IntentStore) expireByID(table string, id int64) error {
	result, err := s.db.Exec(`UPDATE `+table+` SET expired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("expire %s row: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expire intent %d: %w", id, ErrNotFound)
	}
	return nil
}

// ExpireRequest retires a request early, e.g. when a completion consumes it.
func (s *IntentStore) ExpireRequest(id int64) error {
	return s.expireByID(requestTable, id)
}

// ExpireClaim retires a claim early.
func (s *IntentStore) ExpireClaim(id int64) error {
	return s.expireByID(claimTable, id)
}
