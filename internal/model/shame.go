package model

import "time"

type ShamePost struct {
	ID               int64     `json:"id"`
	HouseID          int64     `json:"house_id"`
	UserID           int64     `json:"user_id"`
	ImageKey         string    `json:"image_key"`
	Comment          string    `json:"comment"`
	DisapprovalCount int       `json:"disapproval_count"`
	CreatedAt        time.Time `json:"created_at"`
}
