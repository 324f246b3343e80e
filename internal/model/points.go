package model

// UserPoints is one row of a house scoreboard. Members with no completions
// appear with zero points.
type UserPoints struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}
