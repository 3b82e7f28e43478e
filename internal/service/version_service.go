package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alumtek/budgets-api/internal/dto"
	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/pkg/config"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

type budgetVersionStore interface {
	Add(ctx context.Context, budget *models.Budget) (string, error)
	GetByBudgetID(ctx context.Context, budgetID string) ([]models.Budget, error)
}

type quotationMirrorStore interface {
	Create(ctx context.Context, q *models.Quotation) error
	GetByID(ctx context.Context, id int64) (*models.Quotation, error)
	UpdateTotals(ctx context.Context, id int64, totalPrice float64, lastEdit time.Time) error
}

type timelineInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s().-]{5,19}$`)

// BudgetVersionService creates new budget versions: it validates the
// candidate payload, assigns the next version number and persists the
// snapshot. It never touches the canonical quotation row; callers that need
// the mirror updated invoke SyncQuotation explicitly.
type BudgetVersionService struct {
	budgets    budgetVersionStore
	quotations quotationMirrorStore
	cache      timelineInvalidator
	validate   *validator.Validate
	limits     config.BudgetConfig
	logger     *zap.Logger
	now        func() time.Time
}

// BudgetVersionServiceOption configures the service.
type BudgetVersionServiceOption func(*BudgetVersionService)

// WithTimelineInvalidator wires cache invalidation after version writes.
func WithTimelineInvalidator(cache timelineInvalidator) BudgetVersionServiceOption {
	return func(s *BudgetVersionService) {
		s.cache = cache
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BudgetVersionServiceOption {
	return func(s *BudgetVersionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewBudgetVersionService constructs the service.
func NewBudgetVersionService(budgets budgetVersionStore, quotations quotationMirrorStore, limits config.BudgetConfig, validate *validator.Validate, logger *zap.Logger, opts ...BudgetVersionServiceOption) *BudgetVersionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.RetryAttempts <= 0 {
		limits.RetryAttempts = 3
	}
	svc := &BudgetVersionService{
		budgets:    budgets,
		quotations: quotations,
		validate:   validate,
		limits:     limits,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateVersion creates the next version for budgetID, or version 1 when the
// id is new. Version numbers are assigned optimistically (max existing + 1)
// and the document store's uniqueness condition on (BudgetID, Version) turns
// a concurrent duplicate into a recompute-and-retry.
func (s *BudgetVersionService) CreateVersion(ctx context.Context, budgetID string, req dto.CreateBudgetVersionRequest) (*dto.CreateBudgetVersionResponse, error) {
	budgetID = strings.TrimSpace(budgetID)
	if err := s.validatePayload(budgetID, req); err != nil {
		return nil, err
	}

	total := computeTotal(req.Products, req.Complement)

	var lastErr error
	for attempt := 0; attempt < s.limits.RetryAttempts; attempt++ {
		existing, err := s.budgets.GetByBudgetID(ctx, budgetID)
		if err != nil {
			return nil, err
		}

		version := 1
		status := models.BudgetStatusPending
		for _, b := range existing {
			if b.Version >= version {
				version = b.Version + 1
				// a new version inherits the logical budget's current status
				status = b.Status
			}
		}

		creation := s.now()
		budget := &models.Budget{
			BudgetID:     budgetID,
			Version:      version,
			CreationDate: creation,
			Status:       status,
			User:         req.User,
			Customer:     req.Customer,
			Agent:        req.Agent,
			WorkPlace:    req.WorkPlace,
			Products:     req.Products,
			Complement:   req.Complement,
			Total:        total,
		}
		if s.limits.ValidityDays > 0 {
			exp := creation.AddDate(0, 0, s.limits.ValidityDays)
			budget.ExpirationDate = &exp
		}

		internalID, err := s.budgets.Add(ctx, budget)
		if err == nil {
			s.logger.Info("budget version created",
				zap.String("budget_id", budgetID),
				zap.Int("version", version),
				zap.Float64("total", total),
			)
			s.invalidateTimeline(ctx, budgetID)
			return &dto.CreateBudgetVersionResponse{
				InternalID: internalID,
				BudgetID:   budgetID,
				Version:    version,
				Total:      total,
			}, nil
		}
		if !appErrors.Is(err, appErrors.ErrVersionConflict) {
			return nil, err
		}

		lastErr = err
		s.logger.Warn("version conflict, recomputing",
			zap.String("budget_id", budgetID),
			zap.Int("version", version),
			zap.Int("attempt", attempt+1),
		)
		if s.limits.RetryBaseDelay > 0 {
			timer := time.NewTimer(s.limits.RetryBaseDelay << attempt)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil, lastErr
}

// SyncQuotation mirrors the latest version's totals into the canonical
// quotation row, creating the row on first sync. This is the explicit second
// step the versioning contract leaves to callers.
func (s *BudgetVersionService) SyncQuotation(ctx context.Context, budgetID string) error {
	key, err := QuotationKey(budgetID)
	if err != nil {
		return err
	}

	versions, err := s.budgets.GetByBudgetID(ctx, budgetID)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "budget not found: "+budgetID)
	}

	latest := versions[0]
	for _, v := range versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}

	existing, err := s.quotations.GetByID(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load quotation row")
		}
		row := &models.Quotation{
			ID:         key,
			Status:     strings.ToLower(string(latest.Status)),
			TotalPrice: latest.Total,
			LastEdit:   s.now(),
			CustomerID: latest.Customer.DNI,
			UserID:     latest.User.Email,
		}
		if err := s.quotations.Create(ctx, row); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create quotation row")
		}
		return nil
	}

	if err := s.quotations.UpdateTotals(ctx, existing.ID, latest.Total, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update quotation totals")
	}
	return nil
}

// validatePayload applies the business checks in their fixed order and stops
// at the first violation.
func (s *BudgetVersionService) validatePayload(budgetID string, req dto.CreateBudgetVersionRequest) error {
	if budgetID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "budget id is required")
	}
	if len(req.Products) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "budget must contain at least one product")
	}

	if err := s.validate.Var(req.User.Email, "required,email"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "user email is invalid")
	}
	if strings.TrimSpace(req.User.Name) == "" || strings.TrimSpace(req.User.LastName) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "user name and last name are required")
	}

	if err := s.validate.Var(req.Customer.Email, "required,email"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "customer email is invalid")
	}
	if !phonePattern.MatchString(req.Customer.Phone) {
		return appErrors.Clone(appErrors.ErrValidation, "customer phone is invalid")
	}
	if strings.TrimSpace(req.Customer.Name) == "" || strings.TrimSpace(req.Customer.LastName) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "customer name and last name are required")
	}

	for i, p := range req.Products {
		if p.Quantity <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, "product quantity must be positive")
		}
		if p.Width < s.limits.MinWidth || p.Width > s.limits.MaxWidth ||
			p.Height < s.limits.MinHeight || p.Height > s.limits.MaxHeight {
			return appErrors.Clone(appErrors.ErrValidation,
				"product dimensions out of range for opening type "+req.Products[i].OpeningType)
		}
		if s.limits.MaxQuantity > 0 && p.Quantity > s.limits.MaxQuantity {
			return appErrors.Clone(appErrors.ErrValidation, "product quantity exceeds the allowed maximum")
		}
	}

	return nil
}

func (s *BudgetVersionService) invalidateTimeline(ctx context.Context, budgetID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, timelineCacheKey(budgetID)); err != nil {
		s.logger.Warn("timeline cache invalidation failed", zap.String("budget_id", budgetID), zap.Error(err))
	}
}

func computeTotal(products []models.Product, complements []models.Complement) float64 {
	var total float64
	for _, p := range products {
		line := float64(p.Quantity) * p.UnitPrice
		for _, a := range p.Accessories {
			line += float64(a.Quantity) * a.Price
		}
		total += line
	}
	for _, c := range complements {
		total += float64(c.Quantity) * c.Price
	}
	return total
}
