package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emberlane/storefront-backend/pkg/db/models"
)

// ItemDTO is the storefront view of a cart row. Prices reflect the snapshot
// taken when the row was last touched, not the live product.
type ItemDTO struct {
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductImage    string          `json:"product_image,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent int             `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
	ProductStock    int             `json:"product_stock"`
}

func newItemDTO(item *models.CartItem) ItemDTO {
	unit := item.ProductPrice
	if item.DiscountPercent > 0 {
		discount := unit.Mul(decimal.NewFromInt(int64(item.DiscountPercent))).Div(decimal.NewFromInt(100))
		unit = unit.Sub(discount).Round(2)
	}
	return ItemDTO{
		ProductID:       item.ProductID,
		ProductName:     item.ProductName,
		ProductImage:    item.ProductImage,
		Quantity:        item.Quantity,
		UnitPrice:       unit,
		DiscountPercent: item.DiscountPercent,
		LineTotal:       unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
		ProductStock:    item.ProductStock,
	}
}

// CartDTO aggregates the user's cart rows with a snapshot-derived total.
type CartDTO struct {
	Items []ItemDTO       `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func newCartDTO(items []models.CartItem) *CartDTO {
	dto := &CartDTO{Items: make([]ItemDTO, 0, len(items)), Total: decimal.Zero}
	for i := range items {
		item := newItemDTO(&items[i])
		dto.Items = append(dto.Items, item)
		dto.Total = dto.Total.Add(item.LineTotal)
	}
	return dto
}
