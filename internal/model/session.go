package model

import (
	"time"
)

// Who is the identity bound to a session after a successful sign-in. It is a
// denormalized copy so requests need not read the users table.
type Who struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	Who       *Who
}

// Expired reports whether the record must be treated as nonexistent.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// LoggedIn reports whether an identity is bound to the session.
func (s *Session) LoggedIn() bool {
	return s.Who != nil
}
