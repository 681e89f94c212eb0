package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem holds one (user, product) line plus a denormalized product
// snapshot taken at the last write. The snapshot may be stale; order
// creation always re-reads the live product.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:cart_items_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_user_product_key"`
	Quantity  int       `gorm:"column:quantity;not null"`

	ProductName     string          `gorm:"column:product_name;not null"`
	ProductImage    string          `gorm:"column:product_image"`
	ProductPrice    decimal.Decimal `gorm:"column:product_price;type:numeric(12,2);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	ProductStock    int             `gorm:"column:product_stock;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
