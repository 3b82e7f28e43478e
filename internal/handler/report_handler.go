package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
	"github.com/alumtek/budgets-api/pkg/response"
)

type reportService interface {
	GetBudgetsByCustomer(ctx context.Context, dni string) ([]models.Budget, error)
	GetBudgetsByDateRange(ctx context.Context, from, to time.Time) ([]models.Budget, error)
	ListQuotations(ctx context.Context, filter models.QuotationFilter) ([]models.QuotationListItem, *models.Pagination, error)
}

// ReportHandler exposes read-only reporting queries over both stores.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// BudgetsByCustomer lists every budget version belonging to a customer DNI.
func (h *ReportHandler) BudgetsByCustomer(c *gin.Context) {
	budgets, err := h.reports.GetBudgetsByCustomer(c.Request.Context(), c.Param("dni"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, budgets, nil)
}

// BudgetsByDateRange lists budget versions created inside [from, to].
func (h *ReportHandler) BudgetsByDateRange(c *gin.Context) {
	from, okFrom := parseDate(c.Query("from"))
	to, okTo := parseDate(c.Query("to"))
	if !okFrom || !okTo {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from and to are required dates"))
		return
	}

	budgets, err := h.reports.GetBudgetsByDateRange(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, budgets, nil)
}

// Quotations lists canonical quotation rows with customer and work place
// details joined in.
func (h *ReportHandler) Quotations(c *gin.Context) {
	filter := models.QuotationFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customerId"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if from, ok := parseDate(c.Query("from")); ok {
		filter.From = &from
	}
	if to, ok := parseDate(c.Query("to")); ok {
		filter.To = &to
	}

	items, pagination, err := h.reports.ListQuotations(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
