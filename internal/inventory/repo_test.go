package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  images TEXT,
  price TEXT NOT NULL,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  category_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Walnut Desk Organizer",
		Price:      decimal.NewFromInt(30),
		Stock:      stock,
		IsActive:   true,
		CategoryID: uuid.New(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryDecrement(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, 5)

	applied, err := repo.Decrement(context.Background(), product.ID, 3)
	require.NoError(t, err)
	require.True(t, applied)

	stock, err := repo.StockFor(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stock)
}

func TestRepositoryDecrementInsufficient(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, 2)

	applied, err := repo.Decrement(context.Background(), product.ID, 3)
	require.NoError(t, err)
	require.False(t, applied)

	// Stock must be untouched after a refused decrement.
	stock, err := repo.StockFor(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stock)
}

func TestRepositoryDecrementExact(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, 4)

	applied, err := repo.Decrement(context.Background(), product.ID, 4)
	require.NoError(t, err)
	require.True(t, applied)

	stock, err := repo.StockFor(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stock)
}

func TestRepositoryDecrementMissingProduct(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)

	applied, err := repo.Decrement(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestRepositoryRestock(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, 1)

	require.NoError(t, repo.Restock(context.Background(), product.ID, 6))

	stock, err := repo.StockFor(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 7, stock)
}

func TestServiceReserveInsufficientStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	product := seedProduct(t, db, 1)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	err = svc.Reserve(context.Background(), product.ID, 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceCheckAvailable(t *testing.T) {
	db := setupInventoryTestDB(t)
	product := seedProduct(t, db, 3)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	require.NoError(t, svc.CheckAvailable(context.Background(), product.ID, 3))

	err = svc.CheckAvailable(context.Background(), product.ID, 4)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.CheckAvailable(context.Background(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}
