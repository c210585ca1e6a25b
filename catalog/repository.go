package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/satyam-chhatrala/gamma-ortho/models"
)

// Repository is the persistence surface the catalog is built on.
type Repository interface {
	Insert(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindAll(ctx context.Context) ([]models.Product, error)
	FindActive(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// MongoRepository keeps products in a single MongoDB collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// EnsureIndexes creates the text index behind admin search and the compound
// index behind the public listing. Safe to call on every startup.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure product indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Id.IsZero() {
		p.Id = bson.NewObjectID()
	}
	if p.AdditionalImageURLs == nil {
		p.AdditionalImageURLs = []string{}
	}

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot match any document.
		return nil, ErrProductNotFound
	}

	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

// FindAll returns every product, newest first. The admin surface sees
// inactive products too.
func (r *MongoRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

// FindActive returns active products sorted by name ascending, the order the
// public catalog serves them in.
func (r *MongoRepository) FindActive(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return r.find(ctx, bson.M{"isActive": true}, opts)
}

// Search runs a text search over names and descriptions, newest first.
func (r *MongoRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Product, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}

// Update applies a partial update in one document write and returns the
// stored product as it looks afterwards. Clearing the base image unsets the
// field instead of storing an empty string.
func (r *MongoRepository) Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}

	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.ProductType != nil {
		set["productType"] = *upd.ProductType
	}
	if upd.BaseImageURL != nil {
		if *upd.BaseImageURL == "" {
			unset["baseImageUrl"] = ""
		} else {
			set["baseImageUrl"] = *upd.BaseImageURL
		}
	}
	if upd.AdditionalImageURLs != nil {
		set["additionalImageUrls"] = *upd.AdditionalImageURLs
	}
	if upd.Dimensions != nil {
		set["dimensions"] = *upd.Dimensions
	}
	if upd.GSTRate != nil {
		set["gstRate"] = *upd.GSTRate
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.Product
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &out, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrProductNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
