package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Workspace roles with elevated privileges.
const (
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// DefaultRole is assigned when a valid token has no resolvable profile.
const DefaultRole = "user"
