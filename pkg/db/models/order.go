package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emberlane/storefront-backend/pkg/enums"
	"github.com/emberlane/storefront-backend/pkg/types"
)

// Order is immutable after creation except for its status fields. Lines
// and total are frozen at order time; the total always equals the sum of
// line unit price times quantity.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'PENDING'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Shipping      types.ShippingInfo  `gorm:"column:shipping;type:jsonb;serializer:json"`
	Lines         []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLine freezes one product position at order time. UnitPrice is the
// final per-unit price after discount.
type OrderLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_lines_order_id_idx"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
