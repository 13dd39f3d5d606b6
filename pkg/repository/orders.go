package repository

import (
	"context"
	"time"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OrderRepository is the order store accessor. Methods accept any context;
// passing a mongo.SessionContext ties the operation into that session's
// transaction.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(m *Mongo) *OrderRepository {
	return &OrderRepository{col: m.Collection("orders")}
}

func orderID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.KindValidation, "invalid order id %q", id)
	}
	return oid, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := orderID(id)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPurchasedBetween returns orders bought in [from, to), used by the
// top-spender job.
func (r *OrderRepository) ListPurchasedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	filter := bson.M{
		"purchased":    true,
		"purchased_at": bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) (string, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, order); err != nil {
		return "", err
	}
	return order.ID.Hex(), nil
}

func (r *OrderRepository) UpdateAddress(ctx context.Context, id, address string) error {
	oid, err := orderID(id)
	if err != nil {
		return err
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"address": address}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	return nil
}

// SetLineItems is the targeted {lineItems, price} partial update used by the
// mutation engine.
func (r *OrderRepository) SetLineItems(ctx context.Context, id string, items []models.LineItem, price float64) error {
	oid, err := orderID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"items": items, "price": price}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	return nil
}

// purchasedUpdate builds the purchase flip. A return clears the timestamp so
// a reopened order never carries a stale purchased_at.
func purchasedUpdate(purchased bool, at time.Time) bson.M {
	if purchased {
		return bson.M{"$set": bson.M{"purchased": true, "purchased_at": at}}
	}
	return bson.M{
		"$set":   bson.M{"purchased": false},
		"$unset": bson.M{"purchased_at": ""},
	}
}

// SetPurchased flips the purchased flag. A zero modified count means the
// order vanished under a concurrent delete and the caller must abort.
func (r *OrderRepository) SetPurchased(ctx context.Context, id string, purchased bool, at time.Time) error {
	oid, err := orderID(id)
	if err != nil {
		return err
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, purchasedUpdate(purchased, at))
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := orderID(id)
	if err != nil {
		return err
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	return nil
}
