package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleResident  UserRole = "resident"
	RoleSecretary UserRole = "secretary"
	RoleChairman  UserRole = "chairman"
)

// IsOfficial reports whether the role belongs to barangay staff.
func (r UserRole) IsOfficial() bool {
	return r == RoleSecretary || r == RoleChairman
}

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleResident, RoleSecretary, RoleChairman:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID            string     `db:"id" json:"id"`
	Username      string     `db:"username" json:"username"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	Address       string     `db:"address" json:"address,omitempty"`
	ContactNumber string     `db:"contact_number" json:"contact_number,omitempty"`
	Active        bool       `db:"active" json:"active"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
