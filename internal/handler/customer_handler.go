package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/internal/service"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
	"github.com/alumtek/budgets-api/pkg/response"
)

type customerService interface {
	Create(ctx context.Context, req service.CreateCustomerRequest) (*models.Customer, error)
	GetByDNI(ctx context.Context, dni string) (*models.Customer, error)
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error)
}

// CustomerHandler exposes customer master data endpoints.
type CustomerHandler struct {
	customers customerService
}

// NewCustomerHandler constructs the handler.
func NewCustomerHandler(customers customerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// Create registers a customer.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid customer payload"))
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, customer)
}

// GetByDNI fetches one customer by national id.
func (h *CustomerHandler) GetByDNI(c *gin.Context) {
	customer, err := h.customers.GetByDNI(c.Request.Context(), c.Param("dni"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customer, nil)
}

// List returns customers matching an optional search term.
func (h *CustomerHandler) List(c *gin.Context) {
	filter := models.CustomerFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	customers, pagination, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customers, pagination)
}
