// Package auth issues and revokes bearer sessions and reports the current
// user's effective privileges.
package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	RoleID       int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
