package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

type customerStore interface {
	FindByDNI(ctx context.Context, dni string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
}

// CreateCustomerRequest is the payload for registering a customer.
type CreateCustomerRequest struct {
	DNI      string `json:"dni" validate:"required"`
	Name     string `json:"name" validate:"required"`
	LastName string `json:"last_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address"`
}

// CustomerService manages customer master data.
type CustomerService struct {
	repo     customerStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCustomerService constructs the service.
func NewCustomerService(repo customerStore, validate *validator.Validate, logger *zap.Logger) *CustomerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{repo: repo, validate: validate, logger: logger}
}

// Create registers a new customer, rejecting duplicate DNIs.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid customer payload")
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "customer phone is invalid")
	}

	dni := strings.TrimSpace(req.DNI)
	if existing, err := s.repo.FindByDNI(ctx, dni); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "customer dni already registered")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup customer")
	}

	customer := &models.Customer{
		DNI:      dni,
		Name:     req.Name,
		LastName: req.LastName,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    req.Phone,
		Address:  req.Address,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create customer")
	}

	s.logger.Info("customer created", zap.String("dni", customer.DNI))
	return customer, nil
}

// GetByDNI returns a customer master record.
func (s *CustomerService) GetByDNI(ctx context.Context, dni string) (*models.Customer, error) {
	customer, err := s.repo.FindByDNI(ctx, dni)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found: "+dni)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "find customer")
	}
	return customer, nil
}

// List returns customers matching the filter with pagination metadata.
func (s *CustomerService) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error) {
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list customers")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return customers, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
