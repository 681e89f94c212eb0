package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/internal/bus"
	"github.com/emberlane/storefront-backend/internal/cart"
	"github.com/emberlane/storefront-backend/internal/catalog"
	"github.com/emberlane/storefront-backend/internal/inventory"
	"github.com/emberlane/storefront-backend/pkg/db"
	"github.com/emberlane/storefront-backend/pkg/db/models"
	"github.com/emberlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
	"github.com/emberlane/storefront-backend/pkg/logger"
	"github.com/emberlane/storefront-backend/pkg/pagination"
	"github.com/emberlane/storefront-backend/pkg/types"
)

const uniqueOrderNumberConstraint = "orders_order_number_key"

// numberRetries bounds how often a colliding order number is regenerated.
const numberRetries = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderStore is the persistence surface the service needs.
type OrderStore interface {
	WithTx(tx *gorm.DB) *Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (int64, error)
}

// Service turns carts into orders and manages their lifecycle.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*OrderDTO, error)
	Get(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PageDTO, error)
	ListAll(ctx context.Context, params pagination.Params) (*PageDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (*OrderDTO, error)
}

type service struct {
	tx          txRunner
	repo        OrderStore
	cartRepo    cart.CartRepository
	products    catalog.ProductStore
	stock       inventory.StockRepository
	broadcaster bus.Broadcaster
	logg        *logger.Logger
}

// NewService builds an orders service backed by the provided stack.
func NewService(tx txRunner, repo OrderStore, cartRepo cart.CartRepository, products catalog.ProductStore, stock inventory.StockRepository, broadcaster bus.Broadcaster, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if broadcaster == nil {
		return nil, fmt.Errorf("broadcaster required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		cartRepo:    cartRepo,
		products:    products,
		stock:       stock,
		broadcaster: broadcaster,
		logg:        logg,
	}, nil
}

// Create materializes the user's cart into a PENDING order inside one
// transaction: live product loads, conditional stock decrements, decimal
// price math, cart wipe. A colliding order number rolls the whole attempt
// back and retries with a fresh number.
func (s *service) Create(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*OrderDTO, error) {
	var order *models.Order

	for attempt := 0; ; attempt++ {
		candidate, err := s.buildOrder(ctx, userID, shipping)
		if err != nil {
			if db.IsUniqueViolation(err, uniqueOrderNumberConstraint) && attempt < numberRetries {
				continue
			}
			if typed := pkgerrors.As(err); typed != nil {
				return nil, typed
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeOrderFailed, err, "order creation failed")
		}
		order = candidate
		break
	}

	dto := newOrderDTO(order)
	s.broadcaster.Broadcast(bus.Event{Name: bus.EventOrderPlaced, Payload: dto})

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total_amount": order.TotalAmount.String(),
		})
		s.logg.Info(ctx, "order placed")
	}
	return dto, nil
}

func (s *service) buildOrder(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*models.Order, error) {
	var order *models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		products := s.products.WithTx(tx)
		stock := s.stock.WithTx(tx)
		ordersRepo := s.repo.WithTx(tx)

		items, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		lines := make([]models.OrderLine, 0, len(items))
		total := decimal.Zero

		for _, item := range items {
			product, err := products.FindActiveByID(ctx, item.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
						WithDetails(map[string]any{"product_id": item.ProductID.String()})
				}
				return fmt.Errorf("load product: %w", err)
			}

			applied, err := stock.Decrement(ctx, product.ID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !applied {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
					WithDetails(map[string]any{"product_id": product.ID.String(), "requested": item.Quantity})
			}

			unit := product.FinalUnitPrice()
			lines = append(lines, models.OrderLine{
				ID:          uuid.New(),
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   unit,
			})
			total = total.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2))
		}

		order = &models.Order{
			ID:            uuid.New(),
			OrderNumber:   newOrderNumber(),
			UserID:        userID,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusPending,
			TotalAmount:   total,
			Shipping:      shipping,
			Lines:         lines,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("persist order: %w", err)
		}

		if err := cartRepo.DeleteAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// newOrderNumber is a UTC second timestamp plus a short random suffix. The
// unique index on order_number backstops the rare same-second collision.
func newOrderNumber() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return time.Now().UTC().Format("20060102150405") + "-" + suffix
}

// Get returns an order visible to its owner or to an admin.
func (s *service) Get(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != requesterID && requesterRole != string(enums.UserRoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	return newOrderDTO(order), nil
}

// ListMine pages through the requesting user's orders, newest first.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PageDTO, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	orders, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return newPageDTO(orders, pagination.NormalizeLimit(params.Limit)), nil
}

// ListAll pages through every order, newest first. Admin only; the route
// layer enforces the role.
func (s *service) ListAll(ctx context.Context, params pagination.Params) (*PageDTO, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	orders, err := s.repo.ListAll(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return newPageDTO(orders, pagination.NormalizeLimit(params.Limit)), nil
}

// UpdateStatus persists a new fulfillment status and broadcasts it. Only
// enum membership is checked; any state may follow any other, matching how
// fulfillment is corrected operationally.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": string(status)})
	}

	affected, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	s.broadcaster.Broadcast(bus.Event{
		Name: bus.EventOrderStatusUpdated,
		Payload: map[string]any{
			"id":     orderID.String(),
			"status": string(status),
		},
	})

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return newOrderDTO(order), nil
}

// UpdatePaymentStatus persists a new payment status. No broadcast; payment
// state changes are polled by the admin surface.
func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
			WithDetails(map[string]any{"status": string(status)})
	}

	affected, err := s.repo.UpdatePaymentStatus(ctx, orderID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return newOrderDTO(order), nil
}

func newPageDTO(orders []models.Order, limit int) *PageDTO {
	page := &PageDTO{Orders: make([]OrderDTO, 0, len(orders))}
	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}
	for i := range orders {
		page.Orders = append(page.Orders, *newOrderDTO(&orders[i]))
	}
	if hasMore {
		last := orders[len(orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page
}
