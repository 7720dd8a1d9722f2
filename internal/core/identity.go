package core

import "time"

// User is a registered account of the local identity provider. Its ID is the
// owner id of every record the user creates.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Session binds an opaque bearer token to an owner until it expires.
type Session struct {
	Token     string
	OwnerID   string
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
