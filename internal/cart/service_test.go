package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/emberlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
)

type stubCartRepo struct {
	items          map[uuid.UUID]*models.CartItem // keyed by product id, single user
	createErrs     []error
	createErrsHook func()
	updateErr      error
	deleteErr      error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: map[uuid.UUID]*models.CartItem{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	if item, ok := s.items[productID]; ok {
		clone := *item
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	out := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubCartRepo) Create(ctx context.Context, item *models.CartItem) error {
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if s.createErrsHook != nil {
			s.createErrsHook()
		}
		return err
	}
	clone := *item
	s.items[item.ProductID] = &clone
	return nil
}

func (s *stubCartRepo) Update(ctx context.Context, item *models.CartItem) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	clone := *item
	s.items[item.ProductID] = &clone
	return nil
}

func (s *stubCartRepo) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.items, productID)
	return nil
}

func (s *stubCartRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	s.items = map[uuid.UUID]*models.CartItem{}
	return nil
}

type stubCartProducts struct {
	product *models.Product
	err     error
}

func (s *stubCartProducts) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func cartTestProduct(stock int) *models.Product {
	return &models.Product{
		ID:              uuid.New(),
		Name:            "Linen Throw Pillow",
		Images:          []string{"https://cdn.example.com/pillow.jpg"},
		Price:           decimal.NewFromInt(20),
		DiscountPercent: 10,
		Stock:           stock,
		IsActive:        true,
		CategoryID:      uuid.New(),
	}
}

func TestAddItemCreatesThenIncrements(t *testing.T) {
	t.Parallel()

	product := cartTestProduct(10)
	repo := newStubCartRepo()
	svc, err := NewService(repo, &stubCartProducts{product: product})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userID := uuid.New()

	dto, err := svc.AddItem(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", dto)
	}

	dto, err = svc.AddItem(context.Background(), userID, product.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", dto.Items[0].Quantity)
	}

	// Snapshot-derived pricing: 20 at 10% off = 18, times 5 = 90.
	if want := decimal.NewFromInt(90); !dto.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, dto.Total)
	}
}

func TestAddItemInsufficientStock(t *testing.T) {
	t.Parallel()

	product := cartTestProduct(1)
	svc, err := NewService(newStubCartRepo(), &stubCartProducts{product: product})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.AddItem(context.Background(), uuid.New(), product.ID, 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddItemMissingProduct(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubCartRepo(), &stubCartProducts{err: gorm.ErrRecordNotFound})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddItemInsertRaceFallsBackToIncrement(t *testing.T) {
	t.Parallel()

	product := cartTestProduct(10)
	repo := newStubCartRepo()
	userID := uuid.New()

	// Simulate losing the insert race: the first Create hits the unique
	// constraint because another request landed the row in between.
	repo.createErrs = []error{fmt.Errorf(`duplicate key value violates unique constraint "cart_items_user_product_key"`)}
	raced := &models.CartItem{ID: uuid.New(), UserID: userID, ProductID: product.ID, Quantity: 1, ProductName: product.Name, ProductPrice: product.Price}
	repo.createErrsHook = func() {
		repo.items[product.ID] = raced
	}

	svc, err := NewService(repo, &stubCartProducts{product: product})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dto, err := svc.AddItem(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Items[0].Quantity != 3 {
		t.Fatalf("expected converged quantity 3, got %d", dto.Items[0].Quantity)
	}
}

func TestSetQuantityNotFound(t *testing.T) {
	t.Parallel()

	product := cartTestProduct(10)
	svc, err := NewService(newStubCartRepo(), &stubCartProducts{product: product})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.SetQuantity(context.Background(), uuid.New(), product.ID, 4)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetQuantityOverwritesWithoutStockCheck(t *testing.T) {
	t.Parallel()

	product := cartTestProduct(2)
	repo := newStubCartRepo()
	svc, err := NewService(repo, &stubCartProducts{product: product})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stock is 2 but setting 50 succeeds; order creation re-validates.
	dto, err := svc.SetQuantity(context.Background(), userID, product.ID, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Items[0].Quantity != 50 {
		t.Fatalf("expected quantity 50, got %d", dto.Items[0].Quantity)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	t.Parallel()

	product := cartTestProduct(5)
	repo := newStubCartRepo()
	svc, err := NewService(repo, &stubCartProducts{product: product})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		dto, err := svc.RemoveItem(context.Background(), userID, product.ID)
		if err != nil {
			t.Fatalf("remove %d: unexpected error: %v", i, err)
		}
		if len(dto.Items) != 0 {
			t.Fatalf("expected empty cart, got %+v", dto.Items)
		}
	}
}
