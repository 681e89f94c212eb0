package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/cache"
	"github.com/emberlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// ProductReader is the persistence surface the service needs.
type ProductReader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListRecent(ctx context.Context, limit int) ([]models.Product, error)
}

// Service exposes cache-backed catalog reads.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListRecent(ctx context.Context, limit int) ([]ProductDTO, error)
}

type service struct {
	repo  ProductReader
	cache *cache.Cache
}

// NewService builds a catalog service backed by the provided stack.
func NewService(repo ProductReader, c *cache.Cache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &service{repo: repo, cache: c}, nil
}

// GetProduct serves the product detail, preferring the cached payload.
// Cache failures degrade to a direct store read.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	key := s.cache.Key("catalog", "product", id.String())

	var cached ProductDTO
	if s.cache.Lookup(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	dto := newProductDTO(product)
	s.cache.Fill(ctx, key, dto)
	return dto, nil
}

// ListRecent serves the newest products, preferring the cached payload for
// the requested limit. Staleness up to one TTL window is acceptable; writes
// never invalidate.
func (s *service) ListRecent(ctx context.Context, limit int) ([]ProductDTO, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	key := s.cache.Key("catalog", "recent", strconv.Itoa(limit))

	var cached []ProductDTO
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *newProductDTO(&products[i]))
	}

	s.cache.Fill(ctx, key, dtos)
	return dtos, nil
}
