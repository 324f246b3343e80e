package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"choreboard/internal/model"
)

// ResetTTL is how long a password reset code stays usable.
const ResetTTL = 15 * time.Minute

type PasswordResetStore struct {
	db *sql.DB
}

func NewPasswordResetStore(db *sql.DB) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

func scanPasswordReset(scanner interface{ Scan(...any) error }) (*model.PasswordReset, error) {
	var pr model.PasswordReset
	var usedAt sql.NullTime
	err := scanner.Scan(&pr.ID, &pr.UserID, &pr.Code, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return &pr, nil
}

const passwordResetCols = `id, user_id, code, expires_at, used_at, created_at`

// generateCode returns a 6-digit numeric code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create issues a new reset code for the user, invalidating any pending ones.
func (s *PasswordResetStore) Create(userID int64, now time.Time) (*model.PasswordReset, error) {
	_, err := s.db.Exec(
		`UPDATE password_resets SET used_at = ? WHERE user_id = ? AND used_at IS NULL`,
		now, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO password_resets (user_id, code, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		userID, code, now.Add(ResetTTL), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert password reset: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+passwordResetCols+` FROM password_resets WHERE id = ?`, id)
	return scanPasswordReset(row)
}

// Consume validates and burns a reset code. Returns ErrInvalidState when the
// code is unknown, already used, or expired.
func (s *PasswordResetStore) Consume(userID int64, code string, now time.Time) error {
	row := s.db.QueryRow(
		`SELECT `+passwordResetCols+` FROM password_resets WHERE user_id = ? AND code = ? AND used_at IS NULL`,
		userID, code,
	)
	pr, err := scanPasswordReset(row)
	if err == sql.ErrNoRows {
		return fmt.Errorf("consume reset code: %w", ErrInvalidState)
	}
	if err != nil {
		return fmt.Errorf("get reset code: %w", err)
	}
	if !pr.ExpiresAt.After(now) {
		return fmt.Errorf("consume expired reset code: %w", ErrInvalidState)
	}

	_, err = s.db.Exec(`UPDATE password_resets SET used_at = ? WHERE id = ?`, now, pr.ID)
	if err != nil {
		return fmt.Errorf("mark reset code used: %w", err)
	}
	return nil
}
