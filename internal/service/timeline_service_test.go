package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumtek/budgets-api/internal/dto"
	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

type timelineStoreStub struct {
	byBudget   map[string][]models.Budget
	byCustomer map[string][]models.Budget
	budgetHits int
}

func (s *timelineStoreStub) GetByBudgetID(_ context.Context, budgetID string) ([]models.Budget, error) {
	s.budgetHits++
	return s.byBudget[budgetID], nil
}

func (s *timelineStoreStub) GetByCustomerDNI(_ context.Context, dni string) ([]models.Budget, error) {
	return s.byCustomer[dni], nil
}

type timelineCacheStub struct {
	entries map[string][]byte
	sets    int
}

func newTimelineCacheStub() *timelineCacheStub {
	return &timelineCacheStub{entries: map[string][]byte{}}
}

func (s *timelineCacheStub) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "miss")
	}
	return json.Unmarshal(raw, dest)
}

func (s *timelineCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	s.sets++
	return nil
}

func versionAt(budgetID string, version int, day int, status models.BudgetStatus) models.Budget {
	return models.Budget{
		BudgetID:     budgetID,
		Version:      version,
		CreationDate: time.Date(2026, 2, day, 10, 0, 0, 0, time.UTC),
		Status:       status,
		User:         models.UserSnapshot{Name: "Ana", LastName: "Gomez"},
		Customer:     models.CustomerSnapshot{DNI: "123", Name: "Carlos", LastName: "Perez"},
		Total:        float64(100 * version),
	}
}

func TestGetBudgetTimelineOrdersByVersion(t *testing.T) {
	store := &timelineStoreStub{byBudget: map[string][]models.Budget{
		"Q-100": {
			versionAt("Q-100", 3, 5, models.BudgetStatusApproved),
			versionAt("Q-100", 1, 1, models.BudgetStatusApproved),
			versionAt("Q-100", 2, 3, models.BudgetStatusApproved),
		},
	}}
	svc := NewTimelineService(store, nil)

	timeline, err := svc.GetBudgetTimeline(context.Background(), "Q-100")
	require.NoError(t, err)
	require.Len(t, timeline.Entries, 3)
	for i, entry := range timeline.Entries {
		require.Equal(t, i+1, entry.Version)
	}

	// group creation date is the earliest version's, status the latest's
	require.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), timeline.CreationDate)
	require.Equal(t, "Approved", timeline.Status)
}

func TestGetBudgetTimelineStatusFollowsHighestVersion(t *testing.T) {
	store := &timelineStoreStub{byBudget: map[string][]models.Budget{
		"Q-100": {
			versionAt("Q-100", 1, 1, models.BudgetStatusPending),
			versionAt("Q-100", 2, 2, models.BudgetStatusRejected),
		},
	}}
	svc := NewTimelineService(store, nil)

	timeline, err := svc.GetBudgetTimeline(context.Background(), "Q-100")
	require.NoError(t, err)
	require.Equal(t, "Rejected", timeline.Status)
}

func TestGetBudgetTimelineUnknownBudget(t *testing.T) {
	svc := NewTimelineService(&timelineStoreStub{byBudget: map[string][]models.Budget{}}, nil)

	_, err := svc.GetBudgetTimeline(context.Background(), "Q-404")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestGetBudgetTimelineUsesCache(t *testing.T) {
	store := &timelineStoreStub{byBudget: map[string][]models.Budget{
		"Q-100": {versionAt("Q-100", 1, 1, models.BudgetStatusPending)},
	}}
	cache := newTimelineCacheStub()
	svc := NewTimelineService(store, nil, WithTimelineCache(cache, time.Minute))

	first, err := svc.GetBudgetTimeline(context.Background(), "Q-100")
	require.NoError(t, err)
	require.Equal(t, 1, store.budgetHits)
	require.Equal(t, 1, cache.sets)

	second, err := svc.GetBudgetTimeline(context.Background(), "Q-100")
	require.NoError(t, err)
	require.Equal(t, 1, store.budgetHits, "second read must come from cache")
	require.Equal(t, first.BudgetID, second.BudgetID)
	require.Len(t, second.Entries, 1)
}

func TestGetBudgetTimelineNamesFallBack(t *testing.T) {
	bare := versionAt("Q-100", 1, 1, models.BudgetStatusPending)
	bare.User = models.UserSnapshot{}
	bare.Customer = models.CustomerSnapshot{}
	store := &timelineStoreStub{byBudget: map[string][]models.Budget{"Q-100": {bare}}}
	svc := NewTimelineService(store, nil)

	timeline, err := svc.GetBudgetTimeline(context.Background(), "Q-100")
	require.NoError(t, err)
	entry := timeline.Entries[0]
	require.Equal(t, "N/A", entry.UserName)
	require.Equal(t, "N/A", entry.CustomerName)
	require.Equal(t, "N/A", entry.AgentName)
}

func TestGetCustomerTimelineGroupsAndSorts(t *testing.T) {
	store := &timelineStoreStub{byCustomer: map[string][]models.Budget{
		"123": {
			versionAt("Q-100", 1, 1, models.BudgetStatusPending),
			versionAt("Q-100", 2, 4, models.BudgetStatusPending),
			versionAt("Q-200", 1, 10, models.BudgetStatusApproved),
		},
	}}
	svc := NewTimelineService(store, nil)

	timelines, err := svc.GetCustomerTimeline(context.Background(), "123", dto.TimelineQuery{})
	require.NoError(t, err)
	require.Len(t, timelines, 2)

	// newest group first
	require.Equal(t, "Q-200", timelines[0].BudgetID)
	require.Equal(t, "Q-100", timelines[1].BudgetID)
	require.Len(t, timelines[1].Entries, 2)
}

func TestGetCustomerTimelineFilters(t *testing.T) {
	store := &timelineStoreStub{byCustomer: map[string][]models.Budget{
		"123": {
			versionAt("Q-100", 1, 1, models.BudgetStatusPending),
			versionAt("Q-200", 1, 10, models.BudgetStatusApproved),
		},
	}}
	svc := NewTimelineService(store, nil)

	timelines, err := svc.GetCustomerTimeline(context.Background(), "123", dto.TimelineQuery{
		BudgetIDContains: "200",
	})
	require.NoError(t, err)
	require.Len(t, timelines, 1)
	require.Equal(t, "Q-200", timelines[0].BudgetID)

	from := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	timelines, err = svc.GetCustomerTimeline(context.Background(), "123", dto.TimelineQuery{From: &from})
	require.NoError(t, err)
	require.Len(t, timelines, 1)
	require.Equal(t, "Q-200", timelines[0].BudgetID)
}

func TestGetCustomerTimelineUnknownCustomerIsEmpty(t *testing.T) {
	svc := NewTimelineService(&timelineStoreStub{byCustomer: map[string][]models.Budget{}}, nil)

	timelines, err := svc.GetCustomerTimeline(context.Background(), "nobody", dto.TimelineQuery{})
	require.NoError(t, err)
	require.Empty(t, timelines)
}
