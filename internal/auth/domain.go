package auth

import "time"

// Roles known to the application.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
