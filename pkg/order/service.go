// Package order owns the order lifecycle: checkout, line-item mutation while
// the order is open, and the buy/return transaction that moves stock and
// money as one unit.
package order

import (
	"context"
	"strings"
	"time"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"go.uber.org/zap"
)

// returnWindow is how long after purchase an order can still be returned.
const returnWindow = 30 * time.Minute

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	Insert(ctx context.Context, order *models.Order) (string, error)
	UpdateAddress(ctx context.Context, id, address string) error
	SetLineItems(ctx context.Context, id string, items []models.LineItem, price float64) error
	SetPurchased(ctx context.Context, id string, purchased bool, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// sessionRunner opens one storage transaction around fn; every repository
// call made with the context handed to fn joins it.
type sessionRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// stockResolver is the catalog side of an order transaction.
type stockResolver interface {
	Quote(ctx context.Context, productID string, requested int32) (*models.LineItem, error)
	ResolveStock(ctx context.Context, direction models.Direction, items []models.LineItem) ([]models.TransferInstruction, error)
}

// accountLookup resolves a user's payable bank account.
type accountLookup interface {
	GetBankAccountID(ctx context.Context, userID string) (string, error)
}

// Transfer is one entry of a ledger batch.
type Transfer struct {
	SenderAccountID   string
	ReceiverAccountID string
	Amount            float64
}

// ledger adjusts account balances; a batch is applied atomically on the
// remote side.
type ledger interface {
	Transfer(ctx context.Context, batch []Transfer) error
}

type Service struct {
	orders   orderRepo
	sessions sessionRunner
	catalog  stockResolver
	accounts accountLookup
	ledger   ledger
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(orders orderRepo, sessions sessionRunner, catalog stockResolver, accounts accountLookup, ledger ledger, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		sessions: sessions,
		catalog:  catalog,
		accounts: accounts,
		ledger:   ledger,
		logger:   logger,
		now:      time.Now,
	}
}

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type CreateInput struct {
	Address string        `json:"address"`
	Items   []ItemRequest `json:"items"`
}

// Create builds an order from the requested items. Each item is quoted
// against current stock (quantity capped, price frozen); items that are not
// available at all are skipped, and an order with no available items fails.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (*models.Order, error) {
	if strings.TrimSpace(in.Address) == "" {
		return nil, apperr.New(apperr.KindValidation, "delivery address is required")
	}
	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "order needs at least one product")
	}
	if err := s.requireBankAccount(ctx, callerID); err != nil {
		return nil, err
	}

	order := &models.Order{
		Address: strings.TrimSpace(in.Address),
		UserID:  callerID,
	}
	for _, req := range in.Items {
		item, err := s.catalog.Quote(ctx, req.ProductID, req.Quantity)
		if err != nil {
			if apperr.Is(err, apperr.KindProductNotFound) {
				continue
			}
			return nil, err
		}
		AddLine(order, *item)
	}
	if len(order.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "none of the selected products are available")
	}

	if _, err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	order, err := s.owned(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, callerID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, callerID)
}

// UpdateAddress changes the delivery address of an open order.
func (s *Service) UpdateAddress(ctx context.Context, callerID, orderID, address string) error {
	if strings.TrimSpace(address) == "" {
		return apperr.New(apperr.KindValidation, "delivery address is required")
	}

	order, err := s.owned(ctx, callerID, orderID)
	if err != nil {
		return err
	}
	if order.Purchased {
		return apperr.New(apperr.KindValidation, "purchased orders can not be changed")
	}

	return s.orders.UpdateAddress(ctx, orderID, strings.TrimSpace(address))
}

// Delete removes an order; purchased orders are never deleted.
func (s *Service) Delete(ctx context.Context, callerID, orderID string) error {
	order, err := s.owned(ctx, callerID, orderID)
	if err != nil {
		return err
	}
	if order.Purchased {
		return apperr.New(apperr.KindValidation, "purchased orders can not be deleted")
	}
	return s.orders.Delete(ctx, orderID)
}

// AddProduct quotes the product and applies the add to the order's line
// items, persisting the {items, price} pair.
func (s *Service) AddProduct(ctx context.Context, callerID, orderID string, req ItemRequest) (*models.Order, error) {
	order, err := s.mutable(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}

	item, err := s.catalog.Quote(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	AddLine(order, *item)

	if err := s.orders.SetLineItems(ctx, orderID, order.Items, order.Price); err != nil {
		return nil, err
	}
	return order, nil
}

// RemoveProduct decrements or drops a lot of the given product, most
// expensive lot first.
func (s *Service) RemoveProduct(ctx context.Context, callerID, orderID string, req ItemRequest) (*models.Order, error) {
	if req.Quantity <= 0 {
		return nil, apperr.New(apperr.KindValidation, "quantity must be positive")
	}

	order, err := s.mutable(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}

	if err := RemoveLine(order, req.ProductID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.orders.SetLineItems(ctx, orderID, order.Items, order.Price); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) owned(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		return nil, apperr.New(apperr.KindNotOwner, "this is not your order")
	}
	return order, nil
}

// mutable is the mutation-engine precondition: line items may only change
// while the order is unpurchased. This is distinct from the return window,
// which applies to purchased orders.
func (s *Service) mutable(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	order, err := s.owned(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Purchased {
		return nil, apperr.New(apperr.KindValidation, "purchased orders can not be changed")
	}
	return order, nil
}

func (s *Service) requireBankAccount(ctx context.Context, userID string) error {
	accountID, err := s.accounts.GetBankAccountID(ctx, userID)
	if err != nil {
		return err
	}
	if accountID == "" {
		return apperr.New(apperr.KindValidation, "you must first add a bank account")
	}
	return nil
}
