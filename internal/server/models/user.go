// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	UserNo      int64
	Email       string
	Password    string // bcrypt hash, never the plaintext
	UserName    string
	Role        Role
	CreatedAt   time.Time
	DeletedAt   *time.Time
	LastLoginAt *time.Time
}
