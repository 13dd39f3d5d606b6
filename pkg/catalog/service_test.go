package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"github.com/example/shophub/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeProducts struct {
	mu       sync.Mutex
	products map[string]*models.Product
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{products: map[string]*models.Product{}}
	for _, p := range products {
		f.products[p.ID.Hex()] = p
	}
	return f
}

func (f *fakeProducts) GetByID(ctx context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.KindProductNotFound, "product not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) ListAll(ctx context.Context) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) Insert(ctx context.Context, product *models.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product.ID = primitive.NewObjectID()
	f.products[product.ID.Hex()] = product
	return product.ID.Hex(), nil
}

func (f *fakeProducts) Update(ctx context.Context, id string, upd repository.ProductUpdate) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Discount != nil {
		p.Discount = *upd.Discount
		p.Price = models.DiscountedPrice(p.BasePrice, p.Discount)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) AdjustStock(ctx context.Context, id string, delta int32) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.KindProductNotFound, "product not found")
	}
	p.Stock += delta
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
	return nil
}

type noopMirror struct{}

func (noopMirror) UpsertProduct(ctx context.Context, p *models.Product) error { return nil }
func (noopMirror) DeleteProduct(ctx context.Context, id string) error         { return nil }
func (noopMirror) SearchProducts(ctx context.Context, q repository.ProductQuery) (*repository.ProductPage, error) {
	return &repository.ProductPage{}, nil
}

func product(stock int32, price float64, sellerID string) *models.Product {
	return &models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "thing",
		Stock:     stock,
		BasePrice: price,
		Price:     price,
		SellerID:  sellerID,
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newFakeProducts(), noopMirror{}, zap.NewNop())

	cases := []CreateInput{
		{Name: "", BasePrice: 10},
		{Name: "thing", BasePrice: 0},
		{Name: "thing", BasePrice: 10, Stock: -1},
		{Name: "thing", BasePrice: 10, Discount: 101},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), "seller", in); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("input %+v: expected validation error, got %v", in, err)
		}
	}
}

func TestCreateAppliesDiscount(t *testing.T) {
	svc := NewService(newFakeProducts(), noopMirror{}, zap.NewNop())

	created, err := svc.Create(context.Background(), "seller", CreateInput{
		Name:      "thing",
		BasePrice: 200,
		Discount:  25,
		Stock:     1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Price != 150 {
		t.Errorf("expected discounted price 150, got %v", created.Price)
	}
}

func TestQuoteCapsQuantityToStock(t *testing.T) {
	p := product(1, 10, "seller")
	svc := NewService(newFakeProducts(p), noopMirror{}, zap.NewNop())

	item, err := svc.Quote(context.Background(), p.ID.Hex(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("expected quantity capped to 1, got %d", item.Quantity)
	}
	if item.UnitPrice != 10 || item.Name != "thing" {
		t.Errorf("quote did not freeze name and price: %+v", item)
	}
}

func TestQuoteOutOfStockProduct(t *testing.T) {
	p := product(0, 10, "seller")
	svc := NewService(newFakeProducts(p), noopMirror{}, zap.NewNop())

	_, err := svc.Quote(context.Background(), p.ID.Hex(), 1)
	if !apperr.Is(err, apperr.KindProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestQuoteRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newFakeProducts(), noopMirror{}, zap.NewNop())

	_, err := svc.Quote(context.Background(), "any", 0)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveStockBuyDecrementsAndPaysSeller(t *testing.T) {
	p := product(5, 10, "seller")
	products := newFakeProducts(p)
	svc := NewService(products, noopMirror{}, zap.NewNop())

	items := []models.LineItem{{ProductID: p.ID.Hex(), UnitPrice: 10, Quantity: 2}}
	instructions, err := svc.ResolveStock(context.Background(), models.Buy, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := products.GetByID(context.Background(), p.ID.Hex())
	if updated.Stock != 3 {
		t.Errorf("expected stock 3, got %d", updated.Stock)
	}
	if len(instructions) != 1 || instructions[0].SellerID != "seller" || instructions[0].Amount != 20 {
		t.Errorf("unexpected instructions: %+v", instructions)
	}
}

func TestResolveStockBuyWithShortStock(t *testing.T) {
	p := product(1, 10, "seller")
	products := newFakeProducts(p)
	svc := NewService(products, noopMirror{}, zap.NewNop())

	items := []models.LineItem{{ProductID: p.ID.Hex(), UnitPrice: 10, Quantity: 2}}
	_, err := svc.ResolveStock(context.Background(), models.Buy, items)
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	updated, _ := products.GetByID(context.Background(), p.ID.Hex())
	if updated.Stock != 1 {
		t.Errorf("stock changed on a failed resolution: %d", updated.Stock)
	}
}

func TestResolveStockReturnRestocks(t *testing.T) {
	p := product(1, 10, "seller")
	products := newFakeProducts(p)
	svc := NewService(products, noopMirror{}, zap.NewNop())

	// The frozen price, not the current one, decides the refund.
	items := []models.LineItem{{ProductID: p.ID.Hex(), UnitPrice: 8, Quantity: 2}}
	instructions, err := svc.ResolveStock(context.Background(), models.Return, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := products.GetByID(context.Background(), p.ID.Hex())
	if updated.Stock != 3 {
		t.Errorf("expected stock 3 after restock, got %d", updated.Stock)
	}
	if instructions[0].Amount != 16 {
		t.Errorf("expected refund 16 at the frozen price, got %v", instructions[0].Amount)
	}
}

func TestResolveStockBuyThenReturnRestoresStock(t *testing.T) {
	p := product(5, 10, "seller")
	products := newFakeProducts(p)
	svc := NewService(products, noopMirror{}, zap.NewNop())

	items := []models.LineItem{{ProductID: p.ID.Hex(), UnitPrice: 10, Quantity: 3}}

	if _, err := svc.ResolveStock(context.Background(), models.Buy, items); err != nil {
		t.Fatalf("buy resolution failed: %v", err)
	}
	afterBuy, _ := products.GetByID(context.Background(), p.ID.Hex())
	if afterBuy.Stock != 2 {
		t.Fatalf("expected stock 2 after buy, got %d", afterBuy.Stock)
	}

	if _, err := svc.ResolveStock(context.Background(), models.Return, items); err != nil {
		t.Fatalf("return resolution failed: %v", err)
	}
	afterReturn, _ := products.GetByID(context.Background(), p.ID.Hex())
	if afterReturn.Stock != 5 {
		t.Errorf("expected stock restored to 5, got %d", afterReturn.Stock)
	}
}

func TestUpdateRejectsForeignProduct(t *testing.T) {
	p := product(1, 10, "seller")
	svc := NewService(newFakeProducts(p), noopMirror{}, zap.NewNop())

	name := "renamed"
	_, err := svc.Update(context.Background(), "intruder", p.ID.Hex(), UpdateInput{Name: &name})
	if !apperr.Is(err, apperr.KindNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
}
