package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a mongo document. Price is derived: BasePrice discounted by
// Discount percent. Stock never goes negative; it is only mutated through
// the catalog's conditional $inc updates.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Stock         int32              `bson:"stock" json:"stock"`
	BasePrice     float64            `bson:"base_price" json:"base_price"`
	Discount      int32              `bson:"discount" json:"discount"`
	Price         float64            `bson:"price" json:"price"`
	Description   string             `bson:"description" json:"description"`
	SellerID      string             `bson:"seller_id" json:"seller_id"`
	Specificities map[string]string  `bson:"specificities,omitempty" json:"specificities,omitempty"`
}

// DiscountedPrice applies a discount percent to a base price.
func DiscountedPrice(base float64, discount int32) float64 {
	return base - base*float64(discount)/100
}
