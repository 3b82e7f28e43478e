package dto

import (
	"github.com/alumtek/budgets-api/internal/models"
)

// CreateBudgetVersionRequest is the candidate payload for a new budget
// version. Field names mirror the legacy DTO contract.
type CreateBudgetVersionRequest struct {
	User       models.UserSnapshot      `json:"user"`
	Customer   models.CustomerSnapshot  `json:"customer"`
	Agent      *models.AgentSnapshot    `json:"agent,omitempty"`
	WorkPlace  models.WorkPlaceSnapshot `json:"workPlace"`
	Products   []models.Product         `json:"Products"`
	Complement []models.Complement      `json:"Complement"`
}

// CreateBudgetVersionResponse reports the identity of the persisted version.
type CreateBudgetVersionResponse struct {
	InternalID string  `json:"id"`
	BudgetID   string  `json:"budgetId"`
	Version    int     `json:"version"`
	Total      float64 `json:"Total"`
}

// ChangeStatusRequest moves a budget to a new status. Comment is stored only
// when the target status is Rejected.
type ChangeStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"Comment,omitempty"`
}

// TransitionResponse reports which stores accepted the status change, so
// operators can reconcile a partial application instead of guessing from a
// bare boolean.
type TransitionResponse struct {
	BudgetID          string `json:"budgetId"`
	Status            string `json:"status"`
	VersionsAffected  int    `json:"versionsAffected"`
	DocumentsUpdated  bool   `json:"documentsUpdated"`
	RelationalUpdated bool   `json:"relationalUpdated"`
}
