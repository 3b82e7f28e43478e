package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alumtek/budgets-api/internal/dto"
	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/internal/service"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
	"github.com/alumtek/budgets-api/pkg/response"
)

type budgetVersionService interface {
	CreateVersion(ctx context.Context, budgetID string, req dto.CreateBudgetVersionRequest) (*dto.CreateBudgetVersionResponse, error)
	SyncQuotation(ctx context.Context, budgetID string) error
}

type statusTransitionService interface {
	ChangeStatus(ctx context.Context, budgetID string, status models.BudgetStatus, comment string) (*service.TransitionOutcome, error)
}

type timelineReader interface {
	GetBudgetTimeline(ctx context.Context, budgetID string) (*dto.BudgetTimeline, error)
	GetCustomerTimeline(ctx context.Context, dni string, query dto.TimelineQuery) ([]dto.BudgetTimeline, error)
}

type transitionObserver interface {
	ObserveVersionCreated()
	ObserveTransition(result string)
}

// BudgetHandler exposes REST endpoints for budget versioning, status
// transitions and timeline reconstruction.
type BudgetHandler struct {
	versions    budgetVersionService
	transitions statusTransitionService
	timelines   timelineReader
	metrics     transitionObserver
	logger      *zap.Logger
}

// NewBudgetHandler constructs the handler.
func NewBudgetHandler(versions budgetVersionService, transitions statusTransitionService, timelines timelineReader, metrics transitionObserver, logger *zap.Logger) *BudgetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetHandler{
		versions:    versions,
		transitions: transitions,
		timelines:   timelines,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateVersion persists the next version for a budget and syncs the
// canonical quotation row.
func (h *BudgetHandler) CreateVersion(c *gin.Context) {
	var req dto.CreateBudgetVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid budget payload"))
		return
	}

	budgetID := c.Param("budgetId")
	result, err := h.versions.CreateVersion(c.Request.Context(), budgetID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveVersionCreated()
	}

	// the quotation mirror is a separate explicit step; the version exists
	// either way
	if err := h.versions.SyncQuotation(c.Request.Context(), budgetID); err != nil {
		h.logger.Warn("quotation sync failed after version create",
			zap.String("budget_id", budgetID), zap.Error(err))
	}

	response.Created(c, result)
}

// ChangeStatus applies a status transition across both stores.
func (h *BudgetHandler) ChangeStatus(c *gin.Context) {
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}

	status, ok := parseStatus(req.Status)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status: "+req.Status))
		return
	}

	budgetID := c.Param("budgetId")
	outcome, err := h.transitions.ChangeStatus(c.Request.Context(), budgetID, status, req.Comment)
	if err != nil {
		h.observeTransition(outcome)
		response.Error(c, err)
		return
	}
	h.observeTransition(outcome)

	response.JSON(c, http.StatusOK, dto.TransitionResponse{
		BudgetID:          outcome.BudgetID,
		Status:            string(outcome.Status),
		VersionsAffected:  outcome.VersionsAffected,
		DocumentsUpdated:  outcome.DocumentsUpdated,
		RelationalUpdated: outcome.RelationalUpdated,
	}, nil)
}

// Timeline returns the ordered version history of one budget.
func (h *BudgetHandler) Timeline(c *gin.Context) {
	timeline, err := h.timelines.GetBudgetTimeline(c.Request.Context(), c.Param("budgetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeline, nil)
}

// CustomerTimeline returns the grouped histories of a customer's budgets.
func (h *BudgetHandler) CustomerTimeline(c *gin.Context) {
	query := dto.TimelineQuery{
		BudgetIDContains: strings.TrimSpace(c.Query("budgetId")),
	}
	if from, ok := parseDate(c.Query("from")); ok {
		query.From = &from
	}
	if to, ok := parseDate(c.Query("to")); ok {
		query.To = &to
	}

	timelines, err := h.timelines.GetCustomerTimeline(c.Request.Context(), c.Param("dni"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timelines, nil)
}

func (h *BudgetHandler) observeTransition(outcome *service.TransitionOutcome) {
	if h.metrics == nil || outcome == nil {
		return
	}
	switch {
	case outcome.RelationalUpdated:
		h.metrics.ObserveTransition("applied")
	case outcome.DocumentsUpdated:
		h.metrics.ObserveTransition("partial")
	default:
		h.metrics.ObserveTransition("failed")
	}
}

func parseStatus(raw string) (models.BudgetStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return models.BudgetStatusPending, true
	case "approved":
		return models.BudgetStatusApproved, true
	case "rejected":
		return models.BudgetStatusRejected, true
	case "finished":
		return models.BudgetStatusFinished, true
	}
	return "", false
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
