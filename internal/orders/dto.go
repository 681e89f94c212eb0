package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emberlane/storefront-backend/pkg/db/models"
	"github.com/emberlane/storefront-backend/pkg/enums"
	"github.com/emberlane/storefront-backend/pkg/types"
)

// LineDTO is one priced line of an order.
type LineDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Shipping      types.ShippingInfo  `json:"shipping"`
	Lines         []LineDTO           `json:"lines"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		Shipping:      order.Shipping,
		Lines:         make([]LineDTO, 0, len(order.Lines)),
		CreatedAt:     order.CreatedAt,
	}
	for _, line := range order.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		})
	}
	return dto
}

// PageDTO wraps a page of orders with the cursor for the next one.
type PageDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
