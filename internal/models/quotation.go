package models

import "time"

// Quotation is the canonical relational record for a budget. It is the only
// mutable row: status and totals are rewritten in place while the document
// store keeps the full version history. Id correlates 1:1 with the numeric
// part of a BudgetID.
type Quotation struct {
	ID          int64     `db:"id" json:"id"`
	Status      string    `db:"status" json:"status"`
	TotalPrice  float64   `db:"total_price" json:"total_price"`
	LastEdit    time.Time `db:"last_edit" json:"last_edit"`
	CustomerID  string    `db:"customer_id" json:"customer_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	WorkPlaceID string    `db:"work_place_id" json:"work_place_id"`
}

// QuotationListItem joins the quotation with customer and workplace display
// data for reporting screens.
type QuotationListItem struct {
	Quotation
	CustomerName string `db:"customer_name" json:"customer_name"`
	CustomerDNI  string `db:"customer_dni" json:"customer_dni"`
	WorkPlace    string `db:"work_place" json:"work_place"`
}

// QuotationFilter captures filtering criteria for listing quotations.
type QuotationFilter struct {
	Status     string
	CustomerID string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
