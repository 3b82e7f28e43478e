package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/alumtek/budgets-api/internal/models"
)

func TestCustomerRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCustomerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	customer := &models.Customer{
		DNI:      "12345678",
		Name:     "Carlos",
		LastName: "Perez",
		Email:    "carlos@example.com",
		Phone:    "+34600123456",
	}
	require.NoError(t, repo.Create(context.Background(), customer))
	require.NotEmpty(t, customer.ID)
	require.False(t, customer.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryFindByDNI(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCustomerRepository(db)
	rows := sqlmock.NewRows([]string{"id", "dni", "name", "last_name", "email", "phone", "address", "created_at", "updated_at"}).
		AddRow("cus-1", "12345678", "Carlos", "Perez", "carlos@example.com", "+34600123456", "Calle Mayor 1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dni, name")).
		WithArgs("12345678").
		WillReturnRows(rows)

	customer, err := repo.FindByDNI(context.Background(), "12345678")
	require.NoError(t, err)
	require.Equal(t, "Carlos", customer.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryFindByDNIMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCustomerRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dni, name")).
		WithArgs("99999999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByDNI(context.Background(), "99999999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCustomerRepository(db)
	rows := sqlmock.NewRows([]string{"id", "dni", "name", "last_name", "email", "phone", "address", "created_at", "updated_at"}).
		AddRow("cus-1", "12345678", "Carlos", "Perez", "carlos@example.com", "+34600123456", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dni, name")).
		WithArgs("%perez%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%perez%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	customers, total, err := repo.List(context.Background(), models.CustomerFilter{Search: "Perez"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, customers, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
