package models

import "time"

// UserRole represents the available back-office roles.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleOffice UserRole = "OFFICE"
	RoleAgent  UserRole = "AGENT"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Snapshot copies the user into the value type embedded in budgets.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{Name: u.Name, LastName: u.LastName, Email: u.Email}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
