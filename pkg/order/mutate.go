package order

import (
	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
)

// AddLine folds a freshly quoted line item into the order. Lots merge only
// when the frozen unit price matches; after a catalog price change the same
// product is kept as a second lot at the new price.
func AddLine(order *models.Order, item models.LineItem) {
	for i := range order.Items {
		if order.Items[i].ProductID == item.ProductID && order.Items[i].UnitPrice == item.UnitPrice {
			order.Items[i].Quantity += item.Quantity
			order.Price += item.UnitPrice * float64(item.Quantity)
			return
		}
	}

	order.Items = append(order.Items, item)
	order.Price += item.UnitPrice * float64(item.Quantity)
}

// RemoveLine takes quantity away from the product's lots, starting with the
// most expensive lot. A lot that drops to zero or below is removed entirely
// and its full original value is subtracted from the order price.
func RemoveLine(order *models.Order, productID string, quantity int32) error {
	lot := -1
	for i := range order.Items {
		if order.Items[i].ProductID != productID {
			continue
		}
		if lot == -1 || order.Items[i].UnitPrice > order.Items[lot].UnitPrice {
			lot = i
		}
	}
	if lot == -1 {
		return apperr.New(apperr.KindProductNotFound, "this product is not in the order")
	}

	item := &order.Items[lot]
	original := item.Quantity
	item.Quantity -= quantity

	if item.Quantity <= 0 {
		order.Price -= item.UnitPrice * float64(original)
		order.Items = append(order.Items[:lot], order.Items[lot+1:]...)
	} else {
		order.Price -= item.UnitPrice * float64(quantity)
	}

	return nil
}
