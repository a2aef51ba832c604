package model

import "time"

// User is an account able to log in.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds optional per-user presentation data. Every user has at most one.
type Profile struct {
	UserID    string    `json:"user_id"`
	AvatarKey string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Caller is the identity a request acts as.
// The zero value is an anonymous caller.
type Caller struct {
	UserID      string
	Username    string
	IsSuperuser bool
}

// Authenticated reports whether the caller is logged in.
func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// Anonymous returns an unauthenticated caller.
func Anonymous() Caller {
	return Caller{}
}
