package order

import (
	"context"
	"testing"
	"time"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"go.uber.org/zap"
)

type fakeOrders struct {
	order          *models.Order
	inserted       *models.Order
	items          []models.LineItem
	price          float64
	setItems       bool
	setPurchased   bool
	purchasedCalls int
	purchasedFlag  bool
	address        string
	deleted        bool
	setPurchErr    error
}

func (f *fakeOrders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if f.order == nil {
		return nil, apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	cp := *f.order
	cp.Items = append([]models.LineItem(nil), f.order.Items...)
	return &cp, nil
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	if f.order == nil {
		return nil, nil
	}
	return []models.Order{*f.order}, nil
}

func (f *fakeOrders) Insert(ctx context.Context, order *models.Order) (string, error) {
	f.inserted = order
	return "new-id", nil
}

func (f *fakeOrders) UpdateAddress(ctx context.Context, id, address string) error {
	f.address = address
	return nil
}

func (f *fakeOrders) SetLineItems(ctx context.Context, id string, items []models.LineItem, price float64) error {
	f.setItems = true
	f.items = items
	f.price = price
	return nil
}

func (f *fakeOrders) SetPurchased(ctx context.Context, id string, purchased bool, at time.Time) error {
	if f.setPurchErr != nil {
		return f.setPurchErr
	}
	f.setPurchased = true
	f.purchasedCalls++
	f.purchasedFlag = purchased
	if f.order != nil {
		f.order.Purchased = purchased
		if purchased {
			f.order.PurchasedAt = at
		} else {
			f.order.PurchasedAt = time.Time{}
		}
	}
	return nil
}

func (f *fakeOrders) Delete(ctx context.Context, id string) error {
	f.deleted = true
	return nil
}

type fakeSessions struct {
	aborted bool
}

func (f *fakeSessions) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		f.aborted = true
	}
	return err
}

type fakeCatalog struct {
	quote        func(productID string, requested int32) (*models.LineItem, error)
	resolve      func(direction models.Direction, items []models.LineItem) ([]models.TransferInstruction, error)
	resolved     bool
	resolveCalls int
}

func (f *fakeCatalog) Quote(ctx context.Context, productID string, requested int32) (*models.LineItem, error) {
	return f.quote(productID, requested)
}

func (f *fakeCatalog) ResolveStock(ctx context.Context, direction models.Direction, items []models.LineItem) ([]models.TransferInstruction, error) {
	f.resolved = true
	f.resolveCalls++
	return f.resolve(direction, items)
}

type fakeAccounts map[string]string

func (f fakeAccounts) GetBankAccountID(ctx context.Context, userID string) (string, error) {
	return f[userID], nil
}

type fakeLedger struct {
	batches [][]Transfer
	err     error
}

func (f *fakeLedger) Transfer(ctx context.Context, batch []Transfer) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

func newTestService(orders *fakeOrders, sessions *fakeSessions, cat *fakeCatalog, accounts fakeAccounts, led *fakeLedger) *Service {
	return NewService(orders, sessions, cat, accounts, led, zap.NewNop())
}

func simpleQuote(productID string, requested int32) (*models.LineItem, error) {
	return &models.LineItem{ProductID: productID, Name: "thing", UnitPrice: 10, Quantity: requested}, nil
}

func TestCreateSkipsUnavailableProducts(t *testing.T) {
	orders := &fakeOrders{}
	cat := &fakeCatalog{quote: func(productID string, requested int32) (*models.LineItem, error) {
		if productID == "gone" {
			return nil, apperr.New(apperr.KindProductNotFound, "this product is not available")
		}
		return simpleQuote(productID, requested)
	}}
	svc := newTestService(orders, &fakeSessions{}, cat, fakeAccounts{"u1": "acc1"}, &fakeLedger{})

	created, err := svc.Create(context.Background(), "u1", CreateInput{
		Address: "street 1",
		Items: []ItemRequest{
			{ProductID: "gone", Quantity: 1},
			{ProductID: "p1", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created.Items) != 1 || created.Items[0].ProductID != "p1" {
		t.Fatalf("expected only p1 in order, got %+v", created.Items)
	}
	if created.Price != 20 {
		t.Errorf("expected price 20, got %v", created.Price)
	}
	if orders.inserted == nil {
		t.Error("order was not persisted")
	}
}

func TestCreateFailsWhenNothingAvailable(t *testing.T) {
	cat := &fakeCatalog{quote: func(string, int32) (*models.LineItem, error) {
		return nil, apperr.New(apperr.KindProductNotFound, "this product is not available")
	}}
	svc := newTestService(&fakeOrders{}, &fakeSessions{}, cat, fakeAccounts{"u1": "acc1"}, &fakeLedger{})

	_, err := svc.Create(context.Background(), "u1", CreateInput{
		Address: "street 1",
		Items:   []ItemRequest{{ProductID: "gone", Quantity: 1}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresBankAccount(t *testing.T) {
	cat := &fakeCatalog{quote: simpleQuote}
	svc := newTestService(&fakeOrders{}, &fakeSessions{}, cat, fakeAccounts{}, &fakeLedger{})

	_, err := svc.Create(context.Background(), "u1", CreateInput{
		Address: "street 1",
		Items:   []ItemRequest{{ProductID: "p1", Quantity: 1}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetRejectsForeignOrder(t *testing.T) {
	orders := &fakeOrders{order: &models.Order{UserID: "someone-else"}}
	svc := newTestService(orders, &fakeSessions{}, &fakeCatalog{}, fakeAccounts{}, &fakeLedger{})

	_, err := svc.Get(context.Background(), "u1", "o1")
	if !apperr.Is(err, apperr.KindNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
}

func TestUpdateAddressOnPurchasedOrder(t *testing.T) {
	orders := &fakeOrders{order: &models.Order{UserID: "u1", Purchased: true}}
	svc := newTestService(orders, &fakeSessions{}, &fakeCatalog{}, fakeAccounts{}, &fakeLedger{})

	err := svc.UpdateAddress(context.Background(), "u1", "o1", "new street")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddProductPersistsItemsAndPrice(t *testing.T) {
	orders := &fakeOrders{order: &models.Order{
		UserID: "u1",
		Price:  10,
		Items:  []models.LineItem{{ProductID: "p1", UnitPrice: 10, Quantity: 1}},
	}}
	cat := &fakeCatalog{quote: simpleQuote}
	svc := newTestService(orders, &fakeSessions{}, cat, fakeAccounts{}, &fakeLedger{})

	updated, err := svc.AddProduct(context.Background(), "u1", "o1", ItemRequest{ProductID: "p1", Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !orders.setItems {
		t.Fatal("line items were not persisted")
	}
	if orders.price != 30 || updated.Price != 30 {
		t.Errorf("expected price 30, got persisted %v returned %v", orders.price, updated.Price)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 3 {
		t.Errorf("expected merged lot of 3, got %+v", updated.Items)
	}
}

func TestRemoveProductRequiresPositiveQuantity(t *testing.T) {
	svc := newTestService(&fakeOrders{}, &fakeSessions{}, &fakeCatalog{}, fakeAccounts{}, &fakeLedger{})

	_, err := svc.RemoveProduct(context.Background(), "u1", "o1", ItemRequest{ProductID: "p1", Quantity: 0})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeletePurchasedOrder(t *testing.T) {
	orders := &fakeOrders{order: &models.Order{UserID: "u1", Purchased: true}}
	svc := newTestService(orders, &fakeSessions{}, &fakeCatalog{}, fakeAccounts{}, &fakeLedger{})

	err := svc.Delete(context.Background(), "u1", "o1")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if orders.deleted {
		t.Error("purchased order was deleted")
	}
}
