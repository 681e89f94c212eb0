package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/db/models"
)

// Repository exposes stock-level persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) StockRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// StockFor returns the current stock level for a product.
func (r *Repository) StockFor(ctx context.Context, productID uuid.UUID) (int, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Select("id", "stock").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return 0, err
	}
	return product.Stock, nil
}

// Decrement subtracts qty from the product's stock in a single conditional
// UPDATE. It reports whether the decrement applied; false means the row was
// missing or holds insufficient stock.
func (r *Repository) Decrement(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Restock adds qty back to the product's stock.
func (r *Repository) Restock(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
