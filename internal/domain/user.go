package domain

import (
	"strings"
	"time"
)

// Role is the closed set of access roles a user can hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a raw role value.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User is the authentication principal and visibility anchor.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Phone        *string
	CompanyID    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) OwningCompanyID() *string { return u.CompanyID }

func (u User) OwningUserID() string { return u.ID }
