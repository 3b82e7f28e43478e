package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

type budgetReportStore interface {
	GetByCustomerDNI(ctx context.Context, dni string) ([]models.Budget, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Budget, error)
}

type quotationReportStore interface {
	List(ctx context.Context, filter models.QuotationFilter) ([]models.QuotationListItem, int, error)
}

// ReportService serves the flat reporting queries downstream dashboards
// consume. No invariants live here; totals come from the budget snapshots.
type ReportService struct {
	budgets    budgetReportStore
	quotations quotationReportStore
	logger     *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(budgets budgetReportStore, quotations quotationReportStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{budgets: budgets, quotations: quotations, logger: logger}
}

// GetBudgetsByCustomer returns every version snapshot of a customer, newest
// creation first.
func (s *ReportService) GetBudgetsByCustomer(ctx context.Context, dni string) ([]models.Budget, error) {
	if dni == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "customer dni is required")
	}
	budgets, err := s.budgets.GetByCustomerDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	sortByCreationDesc(budgets)
	return budgets, nil
}

// GetBudgetsByDateRange returns the snapshots created inside the inclusive
// range, newest creation first.
func (s *ReportService) GetBudgetsByDateRange(ctx context.Context, from, to time.Time) ([]models.Budget, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range end precedes start")
	}
	budgets, err := s.budgets.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sortByCreationDesc(budgets)
	return budgets, nil
}

// ListQuotations returns the filtered canonical rows with pagination
// metadata.
func (s *ReportService) ListQuotations(ctx context.Context, filter models.QuotationFilter) ([]models.QuotationListItem, *models.Pagination, error) {
	items, total, err := s.quotations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list quotations")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func sortByCreationDesc(budgets []models.Budget) {
	sort.Slice(budgets, func(i, j int) bool {
		if budgets[i].CreationDate.Equal(budgets[j].CreationDate) {
			if budgets[i].BudgetID == budgets[j].BudgetID {
				return budgets[i].Version > budgets[j].Version
			}
			return budgets[i].BudgetID < budgets[j].BudgetID
		}
		return budgets[i].CreationDate.After(budgets[j].CreationDate)
	})
}
