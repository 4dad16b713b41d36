// Package roles serves role management: CRUD, grants and holders.
package roles

import "errors"

var (
	// ErrNotFound indicates the role does not exist.
	ErrNotFound = errors.New("roles: not found")
	// ErrDuplicate indicates another role already uses the name.
	ErrDuplicate = errors.New("roles: duplicate name")
	// ErrInUse indicates the role still has users assigned.
	ErrInUse = errors.New("roles: role has users")
)

// RoleInput is a validated role write.
type RoleInput struct {
	Name         string
	Description  string
	Active       bool
	PrivilegeIDs []int64
}
