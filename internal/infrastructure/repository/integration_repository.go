package repository

import (
	"context"
	"fmt"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/repository/entity"
	"markethub-integration-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIntegrationRepository implements SystemIntegrationRepository and
// TenantRepository using MongoDB
type MongoIntegrationRepository struct {
	integrations *mongo.Collection
	tenants      *mongo.Collection
}

// NewMongoIntegrationRepository creates a new MongoDB integration repository
func NewMongoIntegrationRepository(db *mongo.Database) *MongoIntegrationRepository {
	return &MongoIntegrationRepository{
		integrations: db.Collection("system_integrations"),
		tenants:      db.Collection("tenants"),
	}
}

var (
	_ ports.SystemIntegrationRepository = (*MongoIntegrationRepository)(nil)
	_ ports.TenantRepository            = (*MongoIntegrationRepository)(nil)
)

// GetByShop retrieves the ERP configuration of a shop
func (r *MongoIntegrationRepository) GetByShop(ctx context.Context, shopID string) (*domain.SystemIntegration, error) {
	return r.findIntegration(ctx, bson.M{"shop_id": shopID})
}

// GetByID retrieves an ERP configuration by id
func (r *MongoIntegrationRepository) GetByID(ctx context.Context, id string) (*domain.SystemIntegration, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid integration id %q: %w", id, err)
	}
	return r.findIntegration(ctx, bson.M{"_id": objID})
}

// GetByEcommerceID retrieves an ERP configuration by the id the ERP uses
// for the connected storefront
func (r *MongoIntegrationRepository) GetByEcommerceID(ctx context.Context, ecommerceID string) (*domain.SystemIntegration, error) {
	return r.findIntegration(ctx, bson.M{"ecommerce_id": ecommerceID})
}

func (r *MongoIntegrationRepository) findIntegration(ctx context.Context, filter bson.M) (*domain.SystemIntegration, error) {
	var doc entity.MongoSystemIntegrationDoc
	err := r.integrations.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}

	return doc.ToDomain(), nil
}

// Upsert saves or updates a shop's ERP configuration
func (r *MongoIntegrationRepository) Upsert(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error) {
	doc := entity.MongoSystemIntegrationDocFromDomain(integration)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop_id": doc.ShopID}

	_, err := r.integrations.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to save integration: %w", err)
	}

	return doc.ToDomain(), nil
}

// List retrieves all tenant sub-accounts
func (r *MongoIntegrationRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	cursor, err := r.tenants.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*domain.Tenant
	for cursor.Next(ctx) {
		var doc entity.MongoTenantDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode tenant: %w", err)
		}
		tenants = append(tenants, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return tenants, nil
}

// FindByShop retrieves the tenant owning a shop, if any
func (r *MongoIntegrationRepository) FindByShop(ctx context.Context, shopID string) (*domain.Tenant, error) {
	var doc entity.MongoTenantDoc
	err := r.tenants.FindOne(ctx, bson.M{"shop_id": shopID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return doc.ToDomain(), nil
}

// LoginCredentials retrieves the hub login stored for a tenant
func (r *MongoIntegrationRepository) LoginCredentials(ctx context.Context, tenantID string) (*domain.LoginCredentials, error) {
	var doc entity.MongoTenantDoc
	err := r.tenants.FindOne(ctx, bson.M{"_id": tenantID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant credentials: %w", err)
	}

	return doc.Login(), nil
}
