package dto

import "time"

// TimelineEntry is one version row in a reconstructed history. Display names
// fall back to "N/A" when the referenced snapshot is absent.
type TimelineEntry struct {
	Version      int       `json:"version"`
	CreationDate time.Time `json:"creationDate"`
	Status       string    `json:"status"`
	UserName     string    `json:"userName"`
	CustomerName string    `json:"customerName"`
	AgentName    string    `json:"agentName"`
	Total        float64   `json:"Total"`
	Comment      string    `json:"Comment,omitempty"`
}

// BudgetTimeline groups the ordered entries of one BudgetID. CreationDate is
// the minimum creation date among the versions; Status is the status of the
// highest version.
type BudgetTimeline struct {
	BudgetID     string          `json:"budgetId"`
	CreationDate time.Time       `json:"creationDate"`
	Status       string          `json:"status"`
	Entries      []TimelineEntry `json:"entries"`
}

// TimelineQuery filters a customer timeline before grouping.
type TimelineQuery struct {
	BudgetIDContains string
	From             *time.Time
	To               *time.Time
}
