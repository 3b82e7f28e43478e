package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

type userStoreStub struct {
	byEmail     map[string]*models.User
	created     []*models.User
	deactivated []string
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{byEmail: map[string]*models.User{}}
}

func (s *userStoreStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userStoreStub) Create(_ context.Context, user *models.User) error {
	s.byEmail[user.Email] = user
	s.created = append(s.created, user)
	return nil
}

func (s *userStoreStub) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(s.byEmail))
	for _, u := range s.byEmail {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *userStoreStub) Deactivate(_ context.Context, id string) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

func TestUserCreateHashesPassword(t *testing.T) {
	store := newUserStoreStub()
	svc := NewUserService(store, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Office@Alumtek.com",
		Password: "s3cret-pass",
		Name:     "Ana",
		LastName: "Gomez",
		Role:     models.RoleOffice,
	})
	require.NoError(t, err)
	require.Equal(t, "office@alumtek.com", user.Email)
	require.True(t, user.Active)
	require.NotEqual(t, "s3cret-pass", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	store := newUserStoreStub()
	store.byEmail["ana@alumtek.com"] = &models.User{Email: "ana@alumtek.com"}
	svc := NewUserService(store, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "ana@alumtek.com",
		Password: "s3cret-pass",
		Name:     "Ana",
		LastName: "Gomez",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestUserCreateValidatesPayload(t *testing.T) {
	svc := NewUserService(newUserStoreStub(), nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUserDeactivateRequiresID(t *testing.T) {
	store := newUserStoreStub()
	svc := NewUserService(store, nil, nil)

	err := svc.Deactivate(context.Background(), "  ")
	require.Error(t, err)
	require.Empty(t, store.deactivated)

	require.NoError(t, svc.Deactivate(context.Background(), "user-1"))
	require.Equal(t, []string{"user-1"}, store.deactivated)
}
