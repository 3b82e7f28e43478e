package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alumtek/budgets-api/internal/models"
)

// QuotationRepository provides database access to the canonical quotation
// rows mirroring the current state of each budget.
type QuotationRepository struct {
	db *sqlx.DB
}

// NewQuotationRepository creates a new instance of QuotationRepository.
func NewQuotationRepository(db *sqlx.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// Create inserts the canonical row for a new budget.
func (r *QuotationRepository) Create(ctx context.Context, q *models.Quotation) error {
	if q.LastEdit.IsZero() {
		q.LastEdit = time.Now().UTC()
	}
	const query = `INSERT INTO quotations (id, status, total_price, last_edit, customer_id, user_id, work_place_id)
	VALUES (:id, :status, :total_price, :last_edit, :customer_id, :user_id, :work_place_id)`
	if _, err := r.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("create quotation: %w", err)
	}
	return nil
}

// GetByID returns a quotation row by its relational key.
func (r *QuotationRepository) GetByID(ctx context.Context, id int64) (*models.Quotation, error) {
	const query = `SELECT id, status, total_price, last_edit, customer_id, user_id, work_place_id FROM quotations WHERE id = $1 LIMIT 1`
	var q models.Quotation
	if err := r.db.GetContext(ctx, &q, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find quotation by id: %w", err)
	}
	return &q, nil
}

// ChangeStatus updates the status mirror of a single quotation row.
func (r *QuotationRepository) ChangeStatus(ctx context.Context, id int64, status string) error {
	const query = `UPDATE quotations SET status = $2, last_edit = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("change quotation status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("change quotation status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateTotals bumps the price and last-edit stamp after a version write.
func (r *QuotationRepository) UpdateTotals(ctx context.Context, id int64, totalPrice float64, lastEdit time.Time) error {
	const query = `UPDATE quotations SET total_price = $2, last_edit = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, totalPrice, lastEdit)
	if err != nil {
		return fmt.Errorf("update quotation totals: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quotation totals: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns quotation rows joined with customer and workplace display
// data, with total count for pagination.
func (r *QuotationRepository) List(ctx context.Context, filter models.QuotationFilter) ([]models.QuotationListItem, int, error) {
	baseQuery := `FROM quotations q
	JOIN customers c ON c.dni = q.customer_id
	LEFT JOIN work_places w ON w.id = q.work_place_id
	WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Status))
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("q.customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("q.last_edit >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("q.last_edit <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"last_edit":   "q.last_edit",
		"total_price": "q.total_price",
		"status":      "q.status",
		"id":          "q.id",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "q.last_edit"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf(`SELECT q.id, q.status, q.total_price, q.last_edit, q.customer_id, q.user_id, q.work_place_id,
	c.name || ' ' || c.last_name AS customer_name, c.dni AS customer_dni,
	COALESCE(w.name, '') AS work_place
	%s ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, column, sortOrder, pageSize, offset)

	var items []models.QuotationListItem
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list quotations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count quotations: %w", err)
	}

	return items, total, nil
}
