package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/emberlane/storefront-backend/internal/catalog"
	"github.com/emberlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

// WishlistRepository is the persistence surface the service needs.
type WishlistRepository interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

// Service exposes wishlist operations for a single user.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]catalog.ProductDTO, error)
}

type service struct {
	repo     WishlistRepository
	products catalog.Service
}

// NewService builds a wishlist service backed by the provided stack.
func NewService(repo WishlistRepository, products catalog.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &service{repo: repo, products: products}, nil
}

// Add saves the product for later. Adding twice is idempotent.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return nil
}

// Remove drops the product from the wishlist. Removing an absent row
// succeeds.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	return nil
}

// List resolves the saved products through the catalog, skipping entries
// whose product has since vanished or been deactivated.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]catalog.ProductDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}

	products := make([]catalog.ProductDTO, 0, len(items))
	for _, item := range items {
		dto, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			return nil, err
		}
		products = append(products, *dto)
	}
	return products, nil
}
