// Package catalog owns products: CRUD, availability quotes for orders, the
// stock/transfer resolution that runs inside order transactions, and the
// best-effort search mirror.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"github.com/example/shophub/pkg/repository"
	"go.uber.org/zap"
)

type productRepo interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Insert(ctx context.Context, product *models.Product) (string, error)
	Update(ctx context.Context, id string, upd repository.ProductUpdate) (*models.Product, error)
	AdjustStock(ctx context.Context, id string, delta int32) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type searchMirror interface {
	UpsertProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, q repository.ProductQuery) (*repository.ProductPage, error)
}

type Service struct {
	products productRepo
	mirror   searchMirror
	logger   *zap.Logger
}

func NewService(products productRepo, mirror searchMirror, logger *zap.Logger) *Service {
	return &Service{products: products, mirror: mirror, logger: logger}
}

type CreateInput struct {
	Name          string            `json:"name"`
	Stock         int32             `json:"stock"`
	BasePrice     float64           `json:"base_price"`
	Discount      int32             `json:"discount"`
	Description   string            `json:"description"`
	Specificities map[string]string `json:"specificities"`
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Discount    *int32  `json:"discount"`
}

func (in *CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.KindValidation, "product name is required")
	}
	if in.BasePrice <= 0 {
		return apperr.New(apperr.KindValidation, "base price must be positive")
	}
	if in.Stock < 0 {
		return apperr.New(apperr.KindValidation, "stock can not be negative")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return apperr.New(apperr.KindValidation, "discount must be between 0 and 100")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, sellerID string, in CreateInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:          strings.TrimSpace(in.Name),
		Stock:         in.Stock,
		BasePrice:     in.BasePrice,
		Discount:      in.Discount,
		Price:         models.DiscountedPrice(in.BasePrice, in.Discount),
		Description:   in.Description,
		SellerID:      sellerID,
		Specificities: in.Specificities,
	}

	if _, err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}

	s.mirrorUpsert(product)
	return product, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, q repository.ProductQuery) (*repository.ProductPage, error) {
	return s.mirror.SearchProducts(ctx, q)
}

func (s *Service) MyProducts(ctx context.Context, sellerID string) ([]models.Product, error) {
	return s.products.ListBySeller(ctx, sellerID)
}

func (s *Service) Update(ctx context.Context, callerID, id string, in UpdateInput) (*models.Product, error) {
	if in.Discount != nil && (*in.Discount < 0 || *in.Discount > 100) {
		return nil, apperr.New(apperr.KindValidation, "discount must be between 0 and 100")
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != callerID {
		return nil, apperr.New(apperr.KindNotOwner, "this is not your product")
	}

	updated, err := s.products.Update(ctx, id, repository.ProductUpdate{
		Name:        in.Name,
		Description: in.Description,
		Discount:    in.Discount,
	})
	if err != nil {
		return nil, err
	}

	s.mirrorUpsert(updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.SellerID != callerID {
		return apperr.New(apperr.KindNotOwner, "this is not your product")
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.mirrorDelete(id)
	return nil
}

// Quote freezes a line item for an order: current name and price, quantity
// capped to what is in stock. Out-of-stock products are unavailable.
func (s *Service) Quote(ctx context.Context, productID string, requested int32) (*models.LineItem, error) {
	if requested <= 0 {
		return nil, apperr.New(apperr.KindValidation, "quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock <= 0 {
		return nil, apperr.New(apperr.KindProductNotFound, "this product is not available")
	}

	quantity := requested
	if product.Stock < requested {
		quantity = product.Stock
	}

	return &models.LineItem{
		ProductID: product.ID.Hex(),
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	}, nil
}

// ResolveStock validates availability and adjusts stock for every line item
// of an order transaction, emitting one transfer instruction per item. All
// stock mutations join the transaction bound to ctx, so an abort undoes them
// together. The caller decides which way the money flows.
func (s *Service) ResolveStock(ctx context.Context, direction models.Direction, items []models.LineItem) ([]models.TransferInstruction, error) {
	instructions := make([]models.TransferInstruction, 0, len(items))

	for _, item := range items {
		var updated *models.Product

		if direction == models.Buy {
			product, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			if product.Stock < item.Quantity {
				return nil, apperr.New(apperr.KindInsufficientStock,
					"not enough stock of %q, only %d left", product.Name, product.Stock)
			}
			updated, err = s.products.AdjustStock(ctx, item.ProductID, -item.Quantity)
			if err != nil {
				return nil, err
			}
		} else {
			var err error
			updated, err = s.products.AdjustStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return nil, err
			}
		}

		s.mirrorUpsert(updated)

		instructions = append(instructions, models.TransferInstruction{
			SellerID: updated.SellerID,
			Amount:   item.UnitPrice * float64(item.Quantity),
		})
	}

	return instructions, nil
}

// RebuildMirror reloads every product into the search mirror, used at catalog
// service startup.
func (s *Service) RebuildMirror(ctx context.Context) error {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if err := s.mirror.UpsertProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

// Mirror writes are fire-and-forget: a stale index must never fail the
// catalog operation that triggered it.
func (s *Service) mirrorUpsert(p *models.Product) {
	product := *p
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mirror.UpsertProduct(ctx, &product); err != nil {
			s.logger.Warn("search mirror upsert failed",
				zap.String("product_id", product.ID.Hex()), zap.Error(err))
		}
	}()
}

func (s *Service) mirrorDelete(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mirror.DeleteProduct(ctx, id); err != nil {
			s.logger.Warn("search mirror delete failed",
				zap.String("product_id", id), zap.Error(err))
		}
	}()
}
