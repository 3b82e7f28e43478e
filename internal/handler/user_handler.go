package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/internal/service"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
	"github.com/alumtek/budgets-api/pkg/response"
)

type userService interface {
	Create(ctx context.Context, req service.CreateUserRequest) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Deactivate(ctx context.Context, id string) error
}

// UserHandler exposes back-office user management endpoints.
type UserHandler struct {
	users userService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// Create registers a back-office user.
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user payload"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// List returns users filtered by role, active flag and search term.
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := strings.ToUpper(c.Query("role")); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Deactivate disables a user account.
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.users.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
