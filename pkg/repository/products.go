package repository

import (
	"context"

	"github.com/example/shophub/pkg/apperr"
	"github.com/example/shophub/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository is the catalog store accessor.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(m *Mongo) *ProductRepository {
	return &ProductRepository{col: m.Collection("products")}
}

func productID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.KindValidation, "invalid product id %q", id)
	}
	return oid, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.KindProductNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	cursor, err := r.col.Find(ctx, bson.M{"seller_id": sellerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Insert(ctx context.Context, product *models.Product) (string, error) {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, product); err != nil {
		return "", err
	}
	return product.ID.Hex(), nil
}

// ProductUpdate carries the optional fields of a partial product update.
// A non-nil Discount recomputes the derived price from the stored base price.
type ProductUpdate struct {
	Name        *string
	Description *string
	Discount    *int32
}

// Update applies a partial update and returns the updated document. The price
// recomputation happens server-side so a concurrent base price is never stale.
func (r *ProductRepository) Update(ctx context.Context, id string, upd ProductUpdate) (*models.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{}
	if upd.Name != nil {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: bson.M{"name": *upd.Name}}})
	}
	if upd.Description != nil {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: bson.M{"description": *upd.Description}}})
	}
	if upd.Discount != nil {
		pipeline = append(pipeline,
			bson.D{{Key: "$set", Value: bson.M{"discount": *upd.Discount}}},
			bson.D{{Key: "$set", Value: bson.M{"price": bson.M{
				"$subtract": bson.A{
					"$base_price",
					bson.M{"$multiply": bson.A{
						"$base_price",
						bson.M{"$divide": bson.A{*upd.Discount, 100}},
					}},
				},
			}}}},
		)
	}
	if len(pipeline) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.KindProductNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock atomically increments stock by delta and returns the updated
// document. Run it with a session context so an aborted transaction undoes
// the increment.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int32) (*models.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"stock": delta}}, opts).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.KindProductNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := productID(id)
	if err != nil {
		return err
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.KindProductNotFound, "product not found")
	}
	return nil
}
