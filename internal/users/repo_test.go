package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	return db
}

func TestCreateAndFind(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "asha@example.com",
		PasswordHash: "hash",
		FirstName:    "Asha",
		LastName:     "Rao",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, created.Role)
	assert.True(t, created.IsActive)

	byEmail, err := repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", byID.Email)
}

func TestDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "dup@example.com", PasswordHash: "h", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "dup@example.com", PasswordHash: "h", FirstName: "C", LastName: "D"})
	require.Error(t, err)
}

func TestUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Email: "l@example.com", PasswordHash: "h", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
	assert.WithinDuration(t, at, *loaded.LastLoginAt, time.Second)
}

func TestListCustomersExcludesAdminsAndPaginates(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, CreateUserDTO{
			Email:        fmt.Sprintf("c%d@example.com", i),
			PasswordHash: "h",
			FirstName:    "Customer",
			LastName:     fmt.Sprintf("%d", i),
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, CreateUserDTO{
		Email:        "ops@example.com",
		PasswordHash: "h",
		FirstName:    "Ops",
		LastName:     "Admin",
		Role:         enums.UserRoleAdmin,
	})
	require.NoError(t, err)

	first, err := repo.ListCustomers(ctx, pagination.Params{Limit: 2}, CustomerFilters{})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListCustomers(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, CustomerFilters{})
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.Empty(t, second.NextCursor)

	for _, customer := range append(first.Customers, second.Customers...) {
		assert.Equal(t, enums.UserRoleCustomer, customer.Role)
	}
}

func TestListCustomersQueryFilter(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "meera@example.com", PasswordHash: "h", FirstName: "Meera", LastName: "Iyer"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "dev@example.com", PasswordHash: "h", FirstName: "Dev", LastName: "Patel"})
	require.NoError(t, err)

	result, err := repo.ListCustomers(ctx, pagination.Params{}, CustomerFilters{Query: "meera"})
	require.NoError(t, err)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, "meera@example.com", result.Customers[0].Email)
}
