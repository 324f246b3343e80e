package model

import "time"

// Intent is the shared shape of task requests and claims: a short-lived
// signal that a member wants to do a task, expiring 24 hours after creation.
type Intent struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Expired   bool      `json:"expired"`
	CreatedAt time.Time `json:"created_at"`
}

// Created reports when the intent was made.
func (i Intent) Created() time.Time { return i.CreatedAt }

// IsExpired reports whether the intent has been marked expired.
func (i Intent) IsExpired() bool { return i.Expired }

// TaskRequest asks others not to complete a task without the requester.
// It does not block anyone.
type TaskRequest struct {
	Intent
}

// TaskClaim marks a task as actively being worked on. While a claim is
// active no one else may claim the task; others may still request it.
type TaskClaim struct {
	Intent
}
