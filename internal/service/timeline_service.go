package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/alumtek/budgets-api/internal/dto"
	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

const displayFallback = "N/A"

type budgetTimelineStore interface {
	GetByBudgetID(ctx context.Context, budgetID string) ([]models.Budget, error)
	GetByCustomerDNI(ctx context.Context, dni string) ([]models.Budget, error)
}

type timelineCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimelineService reconstructs ordered version histories for budgets and
// customers. Read-only; consumes the document store.
type TimelineService struct {
	budgets  budgetTimelineStore
	cache    timelineCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// TimelineServiceOption configures the service.
type TimelineServiceOption func(*TimelineService)

// WithTimelineCache enables response caching for per-budget timelines.
func WithTimelineCache(cache timelineCache, ttl time.Duration) TimelineServiceOption {
	return func(s *TimelineService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// NewTimelineService constructs the service.
func NewTimelineService(budgets budgetTimelineStore, logger *zap.Logger, opts ...TimelineServiceOption) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &TimelineService{budgets: budgets, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// GetBudgetTimeline returns the ordered version history of one BudgetID.
func (s *TimelineService) GetBudgetTimeline(ctx context.Context, budgetID string) (*dto.BudgetTimeline, error) {
	if s.cache != nil {
		var cached dto.BudgetTimeline
		if err := s.cache.Get(ctx, timelineCacheKey(budgetID), &cached); err == nil {
			return &cached, nil
		}
	}

	versions, err := s.budgets.GetByBudgetID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "budget not found: "+budgetID)
	}

	timeline := buildTimeline(budgetID, versions)

	if s.cache != nil {
		if err := s.cache.Set(ctx, timelineCacheKey(budgetID), timeline, s.cacheTTL); err != nil {
			s.logger.Warn("timeline cache write failed", zap.String("budget_id", budgetID), zap.Error(err))
		}
	}

	return timeline, nil
}

// GetCustomerTimeline returns the histories of every budget belonging to a
// customer, grouped by BudgetID. Filters apply before grouping; groups are
// ordered by their representative creation date, newest first. An unknown
// customer yields an empty list, not an error.
func (s *TimelineService) GetCustomerTimeline(ctx context.Context, dni string, query dto.TimelineQuery) ([]dto.BudgetTimeline, error) {
	versions, err := s.budgets.GetByCustomerDNI(ctx, dni)
	if err != nil {
		return nil, err
	}

	filter := models.BudgetFilter{
		BudgetIDContains: query.BudgetIDContains,
		From:             query.From,
		To:               query.To,
	}

	groups := make(map[string][]models.Budget)
	for _, v := range versions {
		if !filter.Matches(v) {
			continue
		}
		groups[v.BudgetID] = append(groups[v.BudgetID], v)
	}

	timelines := make([]dto.BudgetTimeline, 0, len(groups))
	for budgetID, group := range groups {
		timelines = append(timelines, *buildTimeline(budgetID, group))
	}

	sort.Slice(timelines, func(i, j int) bool {
		if timelines[i].CreationDate.Equal(timelines[j].CreationDate) {
			return timelines[i].BudgetID < timelines[j].BudgetID
		}
		return timelines[i].CreationDate.After(timelines[j].CreationDate)
	})

	return timelines, nil
}

// buildTimeline sorts the versions ascending and maps them to report rows.
// The group's creation date is the minimum among its versions; its status is
// the status of the highest version.
func buildTimeline(budgetID string, versions []models.Budget) *dto.BudgetTimeline {
	sorted := make([]models.Budget, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	entries := make([]dto.TimelineEntry, 0, len(sorted))
	creation := sorted[0].CreationDate
	for _, v := range sorted {
		if v.CreationDate.Before(creation) {
			creation = v.CreationDate
		}
		entries = append(entries, dto.TimelineEntry{
			Version:      v.Version,
			CreationDate: v.CreationDate,
			Status:       string(v.Status),
			UserName:     displayName(v.User.FullName()),
			CustomerName: displayName(v.Customer.FullName()),
			AgentName:    displayName(v.Agent.FullName()),
			Total:        v.Total,
			Comment:      v.Comment,
		})
	}

	return &dto.BudgetTimeline{
		BudgetID:     budgetID,
		CreationDate: creation,
		Status:       string(sorted[len(sorted)-1].Status),
		Entries:      entries,
	}
}

func displayName(name string) string {
	if name == "" {
		return displayFallback
	}
	return name
}

func timelineCacheKey(budgetID string) string {
	return "timeline:budget:" + budgetID
}
