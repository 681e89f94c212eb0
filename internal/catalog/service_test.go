package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/cache"
	"github.com/emberlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
	"github.com/emberlane/storefront-backend/pkg/redis"
)

type stubProductReader struct {
	product   *models.Product
	products  []models.Product
	findErr   error
	listErr   error
	findCalls int
	listCalls int
}

func (s *stubProductReader) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.product, nil
}

func (s *stubProductReader) ListRecent(ctx context.Context, limit int) ([]models.Product, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.products, nil
}

type memoryStore struct {
	entries map[string]string
	lastTTL time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.entries[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, ok := value.([]byte)
	if !ok {
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		raw = b
	}
	m.entries[key] = string(raw)
	m.lastTTL = ttl
	return nil
}

// expireAll simulates redis TTL eviction.
func (m *memoryStore) expireAll() {
	m.entries = map[string]string{}
}

func (m *memoryStore) CacheKey(parts ...string) string {
	key := "cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func testProduct(stock int) *models.Product {
	return &models.Product{
		ID:              uuid.New(),
		Name:            "Ceramic Pour-Over Kettle",
		Price:           decimal.NewFromInt(40),
		DiscountPercent: 25,
		Stock:           stock,
		IsActive:        true,
		CategoryID:      uuid.New(),
		Category:        &models.Category{Name: "Kitchen"},
		CreatedAt:       time.Now().UTC(),
	}
}

func TestGetProductCachesOnMiss(t *testing.T) {
	t.Parallel()

	repo := &stubProductReader{product: testProduct(5)}
	store := newMemoryStore()
	svc, err := NewService(repo, cache.New(store, time.Minute, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dto, err := svc.GetProduct(context.Background(), repo.product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.CategoryName != "Kitchen" {
		t.Fatalf("expected category name joined, got %q", dto.CategoryName)
	}
	if want := decimal.NewFromInt(30); !dto.FinalPrice.Equal(want) {
		t.Fatalf("expected final price %s, got %s", want, dto.FinalPrice)
	}

	// Second read must be served from cache.
	if _, err := svc.GetProduct(context.Background(), repo.product.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.findCalls != 1 {
		t.Fatalf("expected one store read, got %d", repo.findCalls)
	}
}

func TestGetProductStalenessBoundedByTTL(t *testing.T) {
	t.Parallel()

	repo := &stubProductReader{product: testProduct(5)}
	store := newMemoryStore()
	svc, err := NewService(repo, cache.New(store, 30*time.Second, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetProduct(context.Background(), repo.product.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastTTL != 30*time.Second {
		t.Fatalf("expected entries stored with the configured TTL, got %v", store.lastTTL)
	}

	// A price change is invisible while the entry lives...
	repo.product.Price = decimal.NewFromInt(80)
	dto, err := svc.GetProduct(context.Background(), repo.product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.NewFromInt(40); !dto.Price.Equal(want) {
		t.Fatalf("expected cached price %s, got %s", want, dto.Price)
	}

	// ...and visible once the TTL evicts it.
	store.expireAll()
	dto, err = svc.GetProduct(context.Background(), repo.product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.NewFromInt(80); !dto.Price.Equal(want) {
		t.Fatalf("expected fresh price %s, got %s", want, dto.Price)
	}
	if repo.findCalls != 2 {
		t.Fatalf("expected a store read per miss, got %d", repo.findCalls)
	}
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	repo := &stubProductReader{findErr: gorm.ErrRecordNotFound}
	svc, err := NewService(repo, cache.New(newMemoryStore(), time.Minute, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.GetProduct(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetProductNilStoreAlwaysMisses(t *testing.T) {
	t.Parallel()

	repo := &stubProductReader{product: testProduct(5)}
	svc, err := NewService(repo, cache.New(nil, time.Minute, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.GetProduct(context.Background(), repo.product.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.findCalls != 2 {
		t.Fatalf("expected every read to hit the store, got %d", repo.findCalls)
	}
}

func TestListRecentClampsLimitAndCaches(t *testing.T) {
	t.Parallel()

	repo := &stubProductReader{products: []models.Product{*testProduct(3), *testProduct(1)}}
	store := newMemoryStore()
	svc, err := NewService(repo, cache.New(store, time.Minute, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dtos, err := svc.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dtos) != 2 {
		t.Fatalf("expected 2 products, got %d", len(dtos))
	}

	if _, err := svc.ListRecent(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one store read, got %d", repo.listCalls)
	}

	// A different limit is a different cache entry.
	if _, err := svc.ListRecent(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected second store read for new limit, got %d", repo.listCalls)
	}
}
