package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/db/models"
)

// Repository exposes read operations over the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ProductStore is the persistence surface shared with the order pipeline,
// which needs live (cache-bypassing) reads inside its transaction.
type ProductStore interface {
	WithTx(tx *gorm.DB) ProductStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListRecent(ctx context.Context, limit int) ([]models.Product, error)
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ProductStore {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a product with its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByID loads a product that is still purchasable. Inactive rows
// behave like missing rows for storefront callers.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListRecent returns the newest active products, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
