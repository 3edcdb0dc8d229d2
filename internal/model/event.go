package model

import (
	"time"
)

type Event struct {
	ID        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Action    string    `db:"action" json:"action"`
	UserID    *string   `db:"user_id" json:"userId,omitempty"`
	Message   string    `db:"message" json:"message"`
	IP        *string   `db:"ip" json:"ip,omitempty"`
	UserAgent *string   `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateEventParams struct {
	ID        string
	Type      string
	Action    string
	UserID    *string
	Message   string
	IP        *string
	UserAgent *string
}
