package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

// StockRepository is the persistence surface the service and the order
// pipeline need.
type StockRepository interface {
	WithTx(tx *gorm.DB) StockRepository
	StockFor(ctx context.Context, productID uuid.UUID) (int, error)
	Decrement(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	Restock(ctx context.Context, productID uuid.UUID, qty int) error
}

// Service guards the non-negative stock invariant for products.
type Service interface {
	CheckAvailable(ctx context.Context, productID uuid.UUID, qty int) error
	Reserve(ctx context.Context, productID uuid.UUID, qty int) error
	Release(ctx context.Context, productID uuid.UUID, qty int) error
}

type service struct {
	repo StockRepository
}

// NewService builds an inventory service backed by the provided repository.
func NewService(repo StockRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

// CheckAvailable verifies the product exists and carries at least qty units.
// It is advisory only; Reserve performs the authoritative conditional write.
func (s *service) CheckAvailable(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	stock, err := s.repo.StockFor(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stock")
	}
	if stock < qty {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID.String(), "available": stock, "requested": qty})
	}
	return nil
}

// Reserve decrements stock atomically. A failed conditional update maps to
// the insufficient-stock error so callers can surface it without a re-read.
func (s *service) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	applied, err := s.repo.Decrement(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID.String(), "requested": qty})
	}
	return nil
}

// Release restores previously reserved units, e.g. on order cancellation.
func (s *service) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.repo.Restock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock")
	}
	return nil
}
