package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/alumtek/budgets-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestQuotationRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuotationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quotations")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	row := &models.Quotation{
		ID:         100,
		Status:     "pending",
		TotalPrice: 600,
		CustomerID: "12345678",
		UserID:     "ana@alumtek.com",
	}
	require.NoError(t, repo.Create(context.Background(), row))
	require.False(t, row.LastEdit.IsZero(), "create must stamp last_edit")

	rows := sqlmock.NewRows([]string{"id", "status", "total_price", "last_edit", "customer_id", "user_id", "work_place_id"}).
		AddRow(int64(100), "pending", 600.0, time.Now(), "12345678", "ana@alumtek.com", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status, total_price")).
		WithArgs(int64(100)).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), found.ID)
	require.Equal(t, "pending", found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuotationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status, total_price")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationRepositoryChangeStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuotationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotations SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ChangeStatus(context.Background(), 100, "approved"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationRepositoryChangeStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuotationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotations SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ChangeStatus(context.Background(), 404, "approved")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationRepositoryUpdateTotals(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuotationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotations SET total_price")).
		WithArgs(int64(100), 700.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTotals(context.Background(), 100, 700, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuotationRepository(db)
	listRows := sqlmock.NewRows([]string{
		"id", "status", "total_price", "last_edit", "customer_id", "user_id", "work_place_id",
		"customer_name", "customer_dni", "work_place",
	}).AddRow(int64(100), "approved", 600.0, time.Now(), "12345678", "ana@alumtek.com", "", "Carlos Perez", "12345678", "Casa")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT q.id, q.status")).
		WithArgs("approved", "12345678").
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("approved", "12345678").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.QuotationFilter{
		Status:     "Approved",
		CustomerID: "12345678",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, "Carlos Perez", items[0].CustomerName)
	require.NoError(t, mock.ExpectationsWereMet())
}
