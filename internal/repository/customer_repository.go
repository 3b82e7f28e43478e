package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alumtek/budgets-api/internal/models"
)

// CustomerRepository provides database access for customer master data.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByDNI returns a customer by national id.
func (r *CustomerRepository) FindByDNI(ctx context.Context, dni string) (*models.Customer, error) {
	const query = `SELECT id, dni, name, last_name, email, phone, address, created_at, updated_at FROM customers WHERE dni = $1 LIMIT 1`
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, dni); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find customer by dni: %w", err)
	}
	return &customer, nil
}

// FindByID returns a customer by identifier.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	const query = `SELECT id, dni, name, last_name, email, phone, address, created_at, updated_at FROM customers WHERE id = $1 LIMIT 1`
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find customer by id: %w", err)
	}
	return &customer, nil
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	customer.UpdatedAt = now

	const query = `INSERT INTO customers (id, dni, name, last_name, email, phone, address, created_at, updated_at)
	VALUES (:id, :dni, :name, :last_name, :email, :phone, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, customer); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// List returns customers matching the filter with total count.
func (r *CustomerRepository) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	baseQuery := `FROM customers WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		baseQuery += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(last_name) LIKE $%d OR dni LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, dni, name, last_name, email, phone, address, created_at, updated_at %s ORDER BY last_name ASC, name ASC LIMIT %d OFFSET %d",
		baseQuery, pageSize, offset)

	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	return customers, total, nil
}
