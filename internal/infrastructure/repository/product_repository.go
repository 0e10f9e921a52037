package repository

import (
	"context"
	"fmt"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/repository/entity"
	"markethub-integration-layer/internal/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository implements ProductRepository using MongoDB.
// Products and variations live in separate collections joined by
// product_id; variation ids double as the SKUs quoted on order items.
type MongoProductRepository struct {
	products   *mongo.Collection
	variations *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		products:   db.Collection("products"),
		variations: db.Collection("variations"),
	}
}

var _ ports.ProductRepository = (*MongoProductRepository)(nil)

// GetVariation retrieves a variation by id
func (r *MongoProductRepository) GetVariation(ctx context.Context, variationID string) (*domain.Variation, error) {
	var doc entity.MongoVariationDoc
	err := r.variations.FindOne(ctx, bson.M{"_id": variationID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variation: %w", err)
	}

	return doc.ToDomain(), nil
}

// UpsertVariationStock sets the variation's stock and returns the updated
// variation, or nil when the variation does not exist
func (r *MongoProductRepository) UpsertVariationStock(ctx context.Context, variationID string, stock int) (*domain.Variation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"stock": stock}}

	var doc entity.MongoVariationDoc
	err := r.variations.FindOneAndUpdate(ctx, bson.M{"_id": variationID}, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update variation stock: %w", err)
	}

	return doc.ToDomain(), nil
}

// GetBySKU retrieves a product by shop and source SKU, variations attached
func (r *MongoProductRepository) GetBySKU(ctx context.Context, shopID, sku string) (*domain.Product, error) {
	var doc entity.MongoProductDoc
	filter := bson.M{"shop_id": shopID, "sku": sku}

	err := r.products.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return r.withVariations(ctx, doc.ToDomain())
}

// GetByID retrieves a product by id, variations attached
func (r *MongoProductRepository) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	var doc entity.MongoProductDoc
	err := r.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return r.withVariations(ctx, doc.ToDomain())
}

// Insert stores a product with its variations, assigning ids where missing
func (r *MongoProductRepository) Insert(ctx context.Context, product *domain.Product, variations []domain.Variation) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	docs := make([]interface{}, 0, len(variations))
	attached := make([]domain.Variation, 0, len(variations))
	for _, variation := range variations {
		if variation.ID == "" {
			variation.ID = uuid.New().String()
		}
		variation.ProductID = product.ID
		docs = append(docs, entity.MongoVariationDocFromDomain(&variation))
		attached = append(attached, variation)
	}

	if _, err := r.products.InsertOne(ctx, entity.MongoProductDocFromDomain(product)); err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	if len(docs) > 0 {
		if _, err := r.variations.InsertMany(ctx, docs); err != nil {
			return nil, fmt.Errorf("failed to insert variations: %w", err)
		}
	}

	product.Variations = attached
	return product, nil
}

// UpdateFields applies a partial update to a product
func (r *MongoProductRepository) UpdateFields(ctx context.Context, productID string, fields map[string]any) error {
	set := bson.M{}
	for key, value := range fields {
		set[key] = value
	}
	set["updated_at"] = time.Now()

	_, err := r.products.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product and its variations
func (r *MongoProductRepository) Delete(ctx context.Context, productID string) error {
	if _, err := r.variations.DeleteMany(ctx, bson.M{"product_id": productID}); err != nil {
		return fmt.Errorf("failed to delete variations: %w", err)
	}
	if _, err := r.products.DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// FindByShop retrieves all products of a shop, variations attached
func (r *MongoProductRepository) FindByShop(ctx context.Context, shopID string) ([]*domain.Product, error) {
	cursor, err := r.products.Find(ctx, bson.M{"shop_id": shopID})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var doc entity.MongoProductDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		product, err := r.withVariations(ctx, doc.ToDomain())
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return products, nil
}

func (r *MongoProductRepository) withVariations(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	cursor, err := r.variations.Find(ctx, bson.M{"product_id": product.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list variations: %w", err)
	}
	defer cursor.Close(ctx)

	var variations []domain.Variation
	for cursor.Next(ctx) {
		var doc entity.MongoVariationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode variation: %w", err)
		}
		variations = append(variations, *doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	product.Variations = variations
	return product, nil
}
