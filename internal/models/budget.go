package models

import (
	"strings"
	"time"
)

// BudgetStatus enumerates the lifecycle states of a budget.
type BudgetStatus string

const (
	BudgetStatusPending  BudgetStatus = "Pending"
	BudgetStatusApproved BudgetStatus = "Approved"
	BudgetStatusRejected BudgetStatus = "Rejected"
	BudgetStatusFinished BudgetStatus = "Finished"
)

// Valid reports whether the status is one of the known states.
func (s BudgetStatus) Valid() bool {
	switch s {
	case BudgetStatusPending, BudgetStatusApproved, BudgetStatusRejected, BudgetStatusFinished:
		return true
	}
	return false
}

// Terminal reports whether the status ends the commercial lifecycle.
// The transition table stays permissive on purpose (any status may move to
// any other, matching the legacy behaviour); this flag only feeds reporting.
func (s BudgetStatus) Terminal() bool {
	return s == BudgetStatusRejected || s == BudgetStatusFinished
}

// Budget is one immutable version snapshot of a quotation. All versions of
// the same quotation share a BudgetID; Version is strictly increasing and
// starts at 1. JSON names follow the legacy DTO contract consumed by the
// existing frontend.
type Budget struct {
	InternalID     string            `json:"id" dynamodbav:"internal_id"`
	BudgetID       string            `json:"budgetId" dynamodbav:"budget_id"`
	Version        int               `json:"version" dynamodbav:"version"`
	CreationDate   time.Time         `json:"creationDate" dynamodbav:"creation_date"`
	Status         BudgetStatus      `json:"status" dynamodbav:"status"`
	User           UserSnapshot      `json:"user" dynamodbav:"user"`
	Customer       CustomerSnapshot  `json:"customer" dynamodbav:"customer"`
	Agent          *AgentSnapshot    `json:"agent,omitempty" dynamodbav:"agent,omitempty"`
	WorkPlace      WorkPlaceSnapshot `json:"workPlace" dynamodbav:"work_place"`
	Products       []Product         `json:"Products" dynamodbav:"products"`
	Complement     []Complement      `json:"Complement" dynamodbav:"complement"`
	ExpirationDate *time.Time        `json:"expirationDate,omitempty" dynamodbav:"expiration_date,omitempty"`
	EndDate        *time.Time        `json:"endDate,omitempty" dynamodbav:"end_date,omitempty"`
	Comment        string            `json:"Comment" dynamodbav:"comment"`
	Total          float64           `json:"Total" dynamodbav:"total"`
}

// Product is a primary line item: one opening with its glass, treatment and
// accessories.
type Product struct {
	OpeningType   string      `json:"openingType" dynamodbav:"opening_type"`
	Quantity      int         `json:"quantity" dynamodbav:"quantity"`
	Width         float64     `json:"width" dynamodbav:"width"`
	Height        float64     `json:"height" dynamodbav:"height"`
	GlassType     string      `json:"glassType" dynamodbav:"glass_type"`
	AlumTreatment string      `json:"alumTreatment" dynamodbav:"alum_treatment"`
	Accessories   []Accessory `json:"accessories,omitempty" dynamodbav:"accessories,omitempty"`
	UnitPrice     float64     `json:"unitPrice" dynamodbav:"unit_price"`
}

// Accessory is an extra attached to a product line.
type Accessory struct {
	Name     string  `json:"name" dynamodbav:"name"`
	Quantity int     `json:"quantity" dynamodbav:"quantity"`
	Price    float64 `json:"price" dynamodbav:"price"`
}

// Complement is an auxiliary priced item (door, partition, railing) attached
// to the budget as a whole rather than to a product line.
type Complement struct {
	Type        string  `json:"type" dynamodbav:"type"`
	Description string  `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Quantity    int     `json:"quantity" dynamodbav:"quantity"`
	Price       float64 `json:"price" dynamodbav:"price"`
}

// UserSnapshot is the acting user copied by value into a budget version, so
// later edits to the master record never rewrite history.
type UserSnapshot struct {
	Name     string `json:"name" dynamodbav:"name"`
	LastName string `json:"lastName" dynamodbav:"last_name"`
	Email    string `json:"email" dynamodbav:"email"`
}

// CustomerSnapshot is the customer copied by value into a budget version.
type CustomerSnapshot struct {
	DNI      string `json:"dni" dynamodbav:"dni"`
	Name     string `json:"name" dynamodbav:"name"`
	LastName string `json:"lastName" dynamodbav:"last_name"`
	Email    string `json:"email" dynamodbav:"email"`
	Phone    string `json:"phone" dynamodbav:"phone"`
}

// AgentSnapshot is the commercial agent copied by value, when one is involved.
type AgentSnapshot struct {
	Name     string `json:"name" dynamodbav:"name"`
	LastName string `json:"lastName" dynamodbav:"last_name"`
}

// WorkPlaceSnapshot is the work location copied by value.
type WorkPlaceSnapshot struct {
	Name    string `json:"name" dynamodbav:"name"`
	Address string `json:"address" dynamodbav:"address"`
}

// FullName joins name and last name, empty when both are blank.
func (u UserSnapshot) FullName() string {
	return joinName(u.Name, u.LastName)
}

// FullName joins name and last name, empty when both are blank.
func (c CustomerSnapshot) FullName() string {
	return joinName(c.Name, c.LastName)
}

// FullName joins name and last name, empty when both are blank.
func (a *AgentSnapshot) FullName() string {
	if a == nil {
		return ""
	}
	return joinName(a.Name, a.LastName)
}

func joinName(name, lastName string) string {
	switch {
	case name == "" && lastName == "":
		return ""
	case name == "":
		return lastName
	case lastName == "":
		return name
	}
	return name + " " + lastName
}

// BudgetFilter narrows budget scans for reporting and timelines.
type BudgetFilter struct {
	BudgetIDContains string
	From             *time.Time
	To               *time.Time
}

// Matches applies the filter in-process; date bounds are inclusive.
func (f BudgetFilter) Matches(b Budget) bool {
	if f.BudgetIDContains != "" &&
		!strings.Contains(strings.ToLower(b.BudgetID), strings.ToLower(f.BudgetIDContains)) {
		return false
	}
	if f.From != nil && b.CreationDate.Before(*f.From) {
		return false
	}
	if f.To != nil && b.CreationDate.After(*f.To) {
		return false
	}
	return true
}
