package model

import "time"

// Task is a chore definition owned by one house. LastCompletedAt and
// LastCompletedBy are a cached view of the most recent surviving task log
// entry: both set or both nil.
type Task struct {
	ID              int64      `json:"id"`
	HouseID         int64      `json:"house_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Value           int        `json:"value"`
	CoolOffPeriod   int        `json:"cool_off_period"` // days
	CoolOffValue    int        `json:"cool_off_value"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
	LastCompletedBy *int64     `json:"last_completed_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TaskLog records one completion. Value and CoolOff are snapshotted at
// completion time; the row is immutable except for deletion.
type TaskLog struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Value     int       `json:"value"`
	CoolOff   bool      `json:"cool_off"`
	CreatedAt time.Time `json:"created_at"`
}
