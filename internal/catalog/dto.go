package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emberlane/storefront-backend/pkg/db/models"
)

// ProductDTO is the cacheable storefront view of a product.
type ProductDTO struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Images          []string        `json:"images"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount_percent"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	Stock           int             `json:"stock"`
	CategoryID      uuid.UUID       `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:              product.ID,
		Name:            product.Name,
		Images:          product.Images,
		Price:           product.Price,
		DiscountPercent: product.DiscountPercent,
		FinalPrice:      product.FinalUnitPrice(),
		Stock:           product.Stock,
		CategoryID:      product.CategoryID,
		CreatedAt:       product.CreatedAt,
	}
	if product.Category != nil {
		dto.CategoryName = product.Category.Name
	}
	return dto
}
