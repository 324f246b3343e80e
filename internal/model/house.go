package model

import "time"

type House struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	AdminID   int64     `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Membership struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Invite is a pending request to join a house, answered by the house admin.
type Invite struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	UserID    int64     `json:"user_id"`
	Responded bool      `json:"responded"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}
