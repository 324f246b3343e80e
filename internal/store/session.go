package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"choreboard/internal/model"
)

// SessionTTL is how long a login session stays valid.
const SessionTTL = 30 * 24 * time.Hour

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var houseID sql.NullInt64
	err := scanner.Scan(&s.ID, &s.UserID, &s.Token, &houseID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if houseID.Valid {
		s.ActiveHouseID = &houseID.Int64
	}
	return &s, nil
}

const sessionCols = `id, user_id, token, active_house_id, expires_at, created_at`

// Create generates a new session with a crypto-random token.
func (s *SessionStore) Create(userID int64, activeHouseID *int64, now time.Time) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	var hID sql.NullInt64
	if activeHouseID != nil {
		hID = sql.NullInt64{Int64: *activeHouseID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO sessions (user_id, token, active_house_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, token, hID, now.Add(SessionTTL), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the session for the given token, or nil if expired or
// not found.
func (s *SessionStore) GetByToken(token string, now time.Time) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE token = ?`, token)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	if !sess.ExpiresAt.After(now) {
		return nil, nil
	}
	return sess, nil
}

// SetActiveHouse switches which house the session operates in.
func (s *SessionStore) SetActiveHouse(sessionID int64, houseID *int64) error {
	var hID sql.NullInt64
	if houseID != nil {
		hID = sql.NullInt64{Int64: *houseID, Valid: true}
	}
	_, err := s.db.Exec(`UPDATE sessions SET active_house_id = ? WHERE id = ?`, hID, sessionID)
	if err != nil {
		return fmt.Errorf("set active house: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
