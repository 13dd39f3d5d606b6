package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is a mongo document. Price is derived from the line items and is
// recomputed on every mutation; it is never read back as authoritative.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Address     string             `bson:"address" json:"address"`
	Price       float64            `bson:"price" json:"price"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Purchased   bool               `bson:"purchased" json:"purchased"`
	PurchasedAt time.Time          `bson:"purchased_at,omitempty" json:"purchased_at,omitempty"`
	Items       []LineItem         `bson:"items" json:"items"`
}

// LineItem is one product lot inside an order. Name and UnitPrice are frozen
// at add-time and never re-read from the catalog. The same product can appear
// in two lots when the catalog price changed between adds.
type LineItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	UnitPrice float64 `bson:"unit_price" json:"unit_price"`
	Quantity  int32   `bson:"quantity" json:"quantity"`
}

// Total recomputes the order price from its line items.
func (o *Order) Total() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.UnitPrice * float64(it.Quantity)
	}
	return sum
}

// TransferInstruction is produced by stock resolution and consumed immediately
// when the ledger transfer batch is built. It is never persisted.
type TransferInstruction struct {
	SellerID string
	Amount   float64
}

// Direction of an order transaction.
type Direction int

const (
	Buy Direction = iota
	Return
)

func (d Direction) String() string {
	if d == Return {
		return "return"
	}
	return "buy"
}
