package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/db"
	"github.com/emberlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

const uniqueCartConstraint = "cart_items_user_product_key"

// insertRetries bounds how often a lost insert race falls back to the
// increment path before giving up.
const insertRetries = 2

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CartRepository is the persistence surface the service and the order
// pipeline need.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

// Service exposes cart operations for a single user.
type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	ListItems(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo     CartRepository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// AddItem upserts a cart row on (user, product): an existing row gets its
// quantity incremented and its snapshot refreshed; concurrent inserts that
// lose the race fall back to the increment path.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < qty {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID.String(), "available": product.Stock, "requested": qty})
	}

	for attempt := 0; ; attempt++ {
		existing, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
		switch {
		case err == nil:
			existing.Quantity += qty
			applySnapshot(existing, product)
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
			}
			return s.ListItems(ctx, userID)

		case err == gorm.ErrRecordNotFound:
			item := &models.CartItem{
				ID:        uuid.New(),
				UserID:    userID,
				ProductID: productID,
				Quantity:  qty,
			}
			applySnapshot(item, product)
			err := s.repo.Create(ctx, item)
			if err == nil {
				return s.ListItems(ctx, userID)
			}
			if db.IsUniqueViolation(err, uniqueCartConstraint) && attempt < insertRetries {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")

		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
	}
}

// SetQuantity overwrites the quantity of an existing row and refreshes its
// snapshot. Stock is not re-checked here; order creation re-validates.
func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing.Quantity = qty
	applySnapshot(existing, product)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.ListItems(ctx, userID)
}

// RemoveItem deletes the row if present. Removing an absent row succeeds.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return s.ListItems(ctx, userID)
}

// ListItems returns the cart with snapshot prices as stored.
func (s *service) ListItems(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	return newCartDTO(items), nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func applySnapshot(item *models.CartItem, product *models.Product) {
	item.ProductName = product.Name
	if len(product.Images) > 0 {
		item.ProductImage = product.Images[0]
	}
	item.ProductPrice = product.Price
	item.DiscountPercent = product.DiscountPercent
	item.ProductStock = product.Stock
}
