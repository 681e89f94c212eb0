package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing. Stock is guarded by a
// non-negative check; price and discount are copied onto orders at
// creation time and never referenced live afterwards.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Images          pq.StringArray  `gorm:"column:images;type:text[]"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	Stock           int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	CategoryID      uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Category        *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// FinalUnitPrice applies the discount and rounds to the currency's minor
// unit. This is the price frozen onto order lines.
func (p Product) FinalUnitPrice() decimal.Decimal {
	if p.DiscountPercent <= 0 {
		return p.Price.Round(2)
	}
	discount := p.Price.
		Mul(decimal.NewFromInt(int64(p.DiscountPercent))).
		Div(decimal.NewFromInt(100))
	return p.Price.Sub(discount).Round(2)
}
