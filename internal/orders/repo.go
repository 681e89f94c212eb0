package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/db/models"
	"github.com/emberlane/storefront-backend/pkg/enums"
	"github.com/emberlane/storefront-backend/pkg/pagination"
)

// Repository exposes persistence operations for orders and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order and its lines. Unique violations on order_number
// bubble up for the service's bounded retry.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with its lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders newest first, cursor paginated.
// The caller passes a buffered limit to detect the next page.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID)
	return r.page(ctx, q, limit, cursor)
}

// ListAll returns every order newest first, cursor paginated. Admin only.
func (r *Repository) ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Lines")
	return r.page(ctx, q, limit, cursor)
}

func (r *Repository) page(_ context.Context, q *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var orders []models.Order
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus persists a new fulfillment status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// UpdatePaymentStatus persists a new payment status.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status)
	return res.RowsAffected, res.Error
}
