package model

import "time"

// Session is a logged-in user's cookie session. ActiveHouseID tracks which
// house the user is currently operating in; a user may belong to several.
type Session struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Token         string    `json:"-"`
	ActiveHouseID *int64    `json:"active_house_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// PasswordReset is a single-use emailed code for resetting a password.
type PasswordReset struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Code      string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}
