package models

import "time"

// Customer is the master customer record stored in the customers table.
// Budget versions embed a value copy (CustomerSnapshot), never a reference.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	DNI       string    `db:"dni" json:"dni"`
	Name      string    `db:"name" json:"name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Snapshot copies the master record into the value type embedded in budgets.
func (c Customer) Snapshot() CustomerSnapshot {
	return CustomerSnapshot{
		DNI:      c.DNI,
		Name:     c.Name,
		LastName: c.LastName,
		Email:    c.Email,
		Phone:    c.Phone,
	}
}

// CustomerFilter captures filtering criteria for listing customers.
type CustomerFilter struct {
	Search   string
	Page     int
	PageSize int
}
