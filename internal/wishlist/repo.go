package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberlane/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for wishlist rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts the (user, product) pair. Re-adding is a no-op via
// ON CONFLICT DO NOTHING.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	item := &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error
}

// Remove deletes the pair. Missing rows are a no-op.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error
}

// ListByUser returns the user's wishlist rows, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
