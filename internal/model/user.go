package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Avatar       string    `db:"avatar" json:"avatar"`
	RegisteredAt time.Time `db:"registered_at" json:"registeredAt"`
}

type CreateUserParams struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}

type UpdateUserParams struct {
	Name   string
	Email  string
	Avatar string
}

// Profile is the minimal public view returned after sign-in.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
