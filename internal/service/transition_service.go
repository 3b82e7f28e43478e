package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/internal/repository"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
	"github.com/alumtek/budgets-api/pkg/jobs"
)

type budgetStatusStore interface {
	ChangeStatus(ctx context.Context, budgetID string, params repository.ChangeStatusParams) (int, error)
}

type quotationStatusStore interface {
	ChangeStatus(ctx context.Context, id int64, status string) error
}

type transitionScheduler interface {
	Enqueue(job jobs.TransitionJob) error
}

// TransitionOutcome reports how far a status transition got. The two stores
// are written sequentially without a shared transaction, so the outcome must
// distinguish "nothing written", "documents only" and "fully applied".
type TransitionOutcome struct {
	BudgetID          string
	Status            models.BudgetStatus
	VersionsAffected  int
	DocumentsUpdated  bool
	RelationalUpdated bool
}

// StatusTransitionService applies a status change to every version document
// of a budget and mirrors it into the canonical quotation row.
type StatusTransitionService struct {
	budgets    budgetStatusStore
	quotations quotationStatusStore
	cache      timelineInvalidator
	retry      transitionScheduler
	logger     *zap.Logger
	now        func() time.Time
}

// StatusTransitionServiceOption configures the service.
type StatusTransitionServiceOption func(*StatusTransitionService)

// WithTransitionCache wires timeline cache invalidation.
func WithTransitionCache(cache timelineInvalidator) StatusTransitionServiceOption {
	return func(s *StatusTransitionService) {
		s.cache = cache
	}
}

// WithRetryScheduler wires the reconcile queue that re-applies partial
// transitions.
func WithRetryScheduler(retry transitionScheduler) StatusTransitionServiceOption {
	return func(s *StatusTransitionService) {
		s.retry = retry
	}
}

// WithTransitionClock overrides the time source.
func WithTransitionClock(now func() time.Time) StatusTransitionServiceOption {
	return func(s *StatusTransitionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStatusTransitionService constructs the service.
func NewStatusTransitionService(budgets budgetStatusStore, quotations quotationStatusStore, logger *zap.Logger, opts ...StatusTransitionServiceOption) *StatusTransitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &StatusTransitionService{
		budgets:    budgets,
		quotations: quotations,
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

// ChangeStatus moves the logical budget to the target status. Phase 1
// rewrites the status on every version document; phase 2 mirrors the
// lower-cased status into the quotation row. Once phase 1 has mutated the
// document store, cancellation no longer aborts the operation: the
// relational mirror is always attempted, and a phase-2 failure is returned
// as ErrPartialTransition together with the outcome so the caller (and the
// reconcile queue) can re-apply the idempotent transition.
func (s *StatusTransitionService) ChangeStatus(ctx context.Context, budgetID string, status models.BudgetStatus, comment string) (*TransitionOutcome, error) {
	outcome := &TransitionOutcome{BudgetID: budgetID, Status: status}

	if !status.Valid() {
		return outcome, appErrors.Clone(appErrors.ErrValidation, "unknown status: "+string(status))
	}
	key, err := QuotationKey(budgetID)
	if err != nil {
		return outcome, err
	}

	params := repository.ChangeStatusParams{Status: status}
	if status == models.BudgetStatusRejected {
		// stored as-is; an empty comment stays empty
		params.Comment = &comment
	}
	if status.Terminal() {
		end := s.now()
		params.EndDate = &end
	}

	count, err := s.budgets.ChangeStatus(ctx, budgetID, params)
	if err != nil {
		s.logger.Error("status transition failed before any write",
			zap.String("budget_id", budgetID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return outcome, err
	}
	if count == 0 {
		return outcome, appErrors.Clone(appErrors.ErrNotFound, "budget not found: "+budgetID)
	}
	outcome.VersionsAffected = count
	outcome.DocumentsUpdated = true

	// The document store has been mutated; shield the mirror step from
	// cancellation so the relational row is at least attempted.
	mirrorCtx := context.WithoutCancel(ctx)
	if err := s.quotations.ChangeStatus(mirrorCtx, key, strings.ToLower(string(status))); err != nil {
		s.logger.Error("relational mirror failed after document store update",
			zap.String("budget_id", budgetID),
			zap.String("status", string(status)),
			zap.Int64("quotation_id", key),
			zap.Error(err),
		)
		s.scheduleReconcile(budgetID, status, comment)
		s.invalidate(mirrorCtx, budgetID)
		return outcome, appErrors.Wrap(err, appErrors.ErrPartialTransition.Code, appErrors.ErrPartialTransition.Status,
			"status applied to document store only for budget "+budgetID)
	}
	outcome.RelationalUpdated = true

	s.invalidate(mirrorCtx, budgetID)
	s.logger.Info("status transition applied",
		zap.String("budget_id", budgetID),
		zap.String("status", string(status)),
		zap.Int("versions", count),
	)
	return outcome, nil
}

func (s *StatusTransitionService) scheduleReconcile(budgetID string, status models.BudgetStatus, comment string) {
	if s.retry == nil {
		return
	}
	if err := s.retry.Enqueue(jobs.TransitionJob{
		BudgetID: budgetID,
		Status:   string(status),
		Comment:  comment,
	}); err != nil {
		s.logger.Warn("failed to schedule transition reconcile",
			zap.String("budget_id", budgetID), zap.Error(err))
	}
}

func (s *StatusTransitionService) invalidate(ctx context.Context, budgetID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, timelineCacheKey(budgetID)); err != nil {
		s.logger.Warn("timeline cache invalidation failed", zap.String("budget_id", budgetID), zap.Error(err))
	}
}
