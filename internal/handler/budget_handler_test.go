package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/alumtek/budgets-api/internal/dto"
	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/internal/service"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

type versionServiceMock struct {
	createResp *dto.CreateBudgetVersionResponse
	createErr  error
	syncErr    error
	syncCalls  int
}

func (m *versionServiceMock) CreateVersion(_ context.Context, _ string, _ dto.CreateBudgetVersionRequest) (*dto.CreateBudgetVersionResponse, error) {
	return m.createResp, m.createErr
}

func (m *versionServiceMock) SyncQuotation(_ context.Context, _ string) error {
	m.syncCalls++
	return m.syncErr
}

type transitionServiceMock struct {
	outcome *service.TransitionOutcome
	err     error
	gotID   string
	gotSt   models.BudgetStatus
	gotCm   string
}

func (m *transitionServiceMock) ChangeStatus(_ context.Context, budgetID string, status models.BudgetStatus, comment string) (*service.TransitionOutcome, error) {
	m.gotID = budgetID
	m.gotSt = status
	m.gotCm = comment
	return m.outcome, m.err
}

type timelineMock struct {
	budget    *dto.BudgetTimeline
	budgetErr error
	customer  []dto.BudgetTimeline
	gotQuery  dto.TimelineQuery
}

func (m *timelineMock) GetBudgetTimeline(_ context.Context, _ string) (*dto.BudgetTimeline, error) {
	return m.budget, m.budgetErr
}

func (m *timelineMock) GetCustomerTimeline(_ context.Context, _ string, query dto.TimelineQuery) ([]dto.BudgetTimeline, error) {
	m.gotQuery = query
	return m.customer, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestBudgetHandlerCreateVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	versions := &versionServiceMock{
		createResp: &dto.CreateBudgetVersionResponse{InternalID: "int-1", BudgetID: "Q-100", Version: 1, Total: 600},
	}
	h := NewBudgetHandler(versions, &transitionServiceMock{}, &timelineMock{}, nil, nil)

	payload, _ := json.Marshal(dto.CreateBudgetVersionRequest{
		Products: []models.Product{{OpeningType: "sliding", Quantity: 1, Width: 1, Height: 1}},
	})
	c, w := newGinContext(http.MethodPost, "/budgets/Q-100/versions", payload)
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-100"}}

	h.CreateVersion(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, versions.syncCalls, "a created version must trigger the quotation sync")
	require.Contains(t, w.Body.String(), `"budgetId":"Q-100"`)
}

func TestBudgetHandlerCreateVersionValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	versions := &versionServiceMock{createErr: appErrors.Clone(appErrors.ErrValidation, "budget must contain at least one product")}
	h := NewBudgetHandler(versions, &transitionServiceMock{}, &timelineMock{}, nil, nil)

	c, w := newGinContext(http.MethodPost, "/budgets/Q-100/versions", []byte(`{}`))
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-100"}}

	h.CreateVersion(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, versions.syncCalls)
}

func TestBudgetHandlerChangeStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	transitions := &transitionServiceMock{
		outcome: &service.TransitionOutcome{
			BudgetID:          "Q-100",
			Status:            models.BudgetStatusApproved,
			VersionsAffected:  3,
			DocumentsUpdated:  true,
			RelationalUpdated: true,
		},
	}
	h := NewBudgetHandler(&versionServiceMock{}, transitions, &timelineMock{}, nil, nil)

	c, w := newGinContext(http.MethodPost, "/budgets/Q-100/status", []byte(`{"status":"approved"}`))
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-100"}}

	h.ChangeStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.BudgetStatusApproved, transitions.gotSt)

	var envelope struct {
		Data dto.TransitionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 3, envelope.Data.VersionsAffected)
	require.True(t, envelope.Data.RelationalUpdated)
}

func TestBudgetHandlerChangeStatusUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBudgetHandler(&versionServiceMock{}, &transitionServiceMock{}, &timelineMock{}, nil, nil)

	c, w := newGinContext(http.MethodPost, "/budgets/Q-100/status", []byte(`{"status":"archived"}`))
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-100"}}

	h.ChangeStatus(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBudgetHandlerChangeStatusPartial(t *testing.T) {
	gin.SetMode(gin.TestMode)
	transitions := &transitionServiceMock{
		outcome: &service.TransitionOutcome{
			BudgetID:         "Q-100",
			Status:           models.BudgetStatusFinished,
			VersionsAffected: 2,
			DocumentsUpdated: true,
		},
		err: appErrors.Clone(appErrors.ErrPartialTransition, "status applied to document store only"),
	}
	h := NewBudgetHandler(&versionServiceMock{}, transitions, &timelineMock{}, nil, nil)

	c, w := newGinContext(http.MethodPost, "/budgets/Q-100/status", []byte(`{"status":"finished"}`))
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-100"}}

	h.ChangeStatus(c)
	require.Equal(t, appErrors.ErrPartialTransition.Status, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrPartialTransition.Code)
}

func TestBudgetHandlerTimeline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	timelines := &timelineMock{
		budget: &dto.BudgetTimeline{BudgetID: "Q-100", Status: "Pending", Entries: []dto.TimelineEntry{{Version: 1}}},
	}
	h := NewBudgetHandler(&versionServiceMock{}, &transitionServiceMock{}, timelines, nil, nil)

	c, w := newGinContext(http.MethodGet, "/budgets/Q-100/timeline", nil)
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-100"}}

	h.Timeline(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"budgetId":"Q-100"`)
}

func TestBudgetHandlerTimelineNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	timelines := &timelineMock{budgetErr: appErrors.Clone(appErrors.ErrNotFound, "budget not found")}
	h := NewBudgetHandler(&versionServiceMock{}, &transitionServiceMock{}, timelines, nil, nil)

	c, w := newGinContext(http.MethodGet, "/budgets/Q-404/timeline", nil)
	c.Params = gin.Params{{Key: "budgetId", Value: "Q-404"}}

	h.Timeline(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBudgetHandlerCustomerTimelineParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	timelines := &timelineMock{customer: []dto.BudgetTimeline{}}
	h := NewBudgetHandler(&versionServiceMock{}, &transitionServiceMock{}, timelines, nil, nil)

	c, w := newGinContext(http.MethodGet, "/customers/123/timeline?budgetId=Q-1&from=2026-02-01&to=2026-02-28", nil)
	c.Params = gin.Params{{Key: "dni", Value: "123"}}

	h.CustomerTimeline(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Q-1", timelines.gotQuery.BudgetIDContains)
	require.NotNil(t, timelines.gotQuery.From)
	require.NotNil(t, timelines.gotQuery.To)
}
