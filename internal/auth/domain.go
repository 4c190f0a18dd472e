package auth

import "time"

// Identity is the raw claim set proven by a bearer token, before profile
// resolution.
type Identity struct {
	UserID string
	Email  string
}

// Profile is the stored user record holding the global role.
type Profile struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
