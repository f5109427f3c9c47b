package auth

import "errors"

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer may read the door status and event history but not
	// command the door.
	RoleViewer Role = "viewer"

	// RoleAdmin has full control: door commands, event history, and
	// system status.
	RoleAdmin Role = "admin"
)

// IsValidRole returns true if the role is a recognised authorisation tier.
func IsValidRole(r Role) bool {
	return r == RoleViewer || r == RoleAdmin
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
)
