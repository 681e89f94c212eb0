package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/internal/catalog"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

func setupWishlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestRepositoryAddIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)
	userID, productID := uuid.New(), uuid.New()

	require.NoError(t, repo.Add(context.Background(), userID, productID))
	require.NoError(t, repo.Add(context.Background(), userID, productID))

	items, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestRepositoryRemoveIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)
	userID, productID := uuid.New(), uuid.New()

	require.NoError(t, repo.Add(context.Background(), userID, productID))
	require.NoError(t, repo.Remove(context.Background(), userID, productID))
	require.NoError(t, repo.Remove(context.Background(), userID, productID))

	items, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, items)
}

type stubCatalog struct {
	known map[uuid.UUID]*catalog.ProductDTO
}

func (s *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	if dto, ok := s.known[id]; ok {
		return dto, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) ListRecent(ctx context.Context, limit int) ([]catalog.ProductDTO, error) {
	return nil, nil
}

func TestServiceListSkipsVanishedProducts(t *testing.T) {
	db := setupWishlistTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	alive := &catalog.ProductDTO{
		ID:         uuid.New(),
		Name:       "Enamel Camp Mug",
		Price:      decimal.NewFromInt(14),
		FinalPrice: decimal.NewFromInt(14),
		CreatedAt:  time.Now().UTC(),
	}
	gone := uuid.New()

	svc, err := NewService(repo, &stubCatalog{known: map[uuid.UUID]*catalog.ProductDTO{alive.ID: alive}})
	require.NoError(t, err)

	require.NoError(t, svc.Add(context.Background(), userID, alive.ID))
	// The vanished product was wishlisted before it went away.
	require.NoError(t, repo.Add(context.Background(), userID, gone))

	products, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, alive.ID, products[0].ID)
}

func TestServiceAddUnknownProduct(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc, err := NewService(NewRepository(db), &stubCatalog{known: map[uuid.UUID]*catalog.ProductDTO{}})
	require.NoError(t, err)

	err = svc.Add(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}
