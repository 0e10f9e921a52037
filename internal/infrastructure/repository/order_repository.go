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

// MongoOrderRepository implements OrderRepository using MongoDB
type MongoOrderRepository struct {
	orders      *mongo.Collection
	checkpoints *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		orders:      db.Collection("orders"),
		checkpoints: db.Collection("order_checkpoints"),
	}
}

var (
	_ ports.OrderRepository      = (*MongoOrderRepository)(nil)
	_ ports.CheckpointRepository = (*MongoOrderRepository)(nil)
)

// GetByReferenceID retrieves an order by its Hub reference id
func (r *MongoOrderRepository) GetByReferenceID(ctx context.Context, referenceID string) (*domain.Order, error) {
	var doc entity.MongoOrderDoc
	filter := bson.M{"reference_id": referenceID}

	err := r.orders.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return doc.ToDomain(), nil
}

// Insert stores a new order. The unique index on reference_id makes a
// concurrent double-insert lose with domain.ErrDuplicate instead of
// producing a second row.
func (r *MongoOrderRepository) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	doc := entity.MongoOrderDocFromDomain(order)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.UpdatedAt = time.Now()

	// Create unique index on reference_id if it doesn't exist
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "reference_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.orders.Indexes().CreateOne(ctx, indexModel)

	if _, err := r.orders.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("order %s: %w", order.ReferenceID, domain.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return doc.ToDomain(), nil
}

// FindByShop retrieves all orders belonging to a shop
func (r *MongoOrderRepository) FindByShop(ctx context.Context, shopID string) ([]*domain.Order, error) {
	cursor, err := r.orders.Find(ctx, bson.M{"shop_id": shopID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return orders, nil
}

// ConditionalUpdateStatus applies the transition only while the stored
// status still equals expected. The filter makes the update atomic:
// whichever concurrent observer matches first wins, the other matches
// zero documents and reports applied=false.
func (r *MongoOrderRepository) ConditionalUpdateStatus(ctx context.Context, referenceID string, expected, next domain.OrderStatus, meta map[string]time.Time) (bool, error) {
	set := bson.M{
		"status":     string(next),
		"updated_at": time.Now(),
	}
	for key, stamp := range meta {
		set["meta."+key] = stamp
	}

	filter := bson.M{
		"reference_id": referenceID,
		"status":       string(expected),
	}

	result, err := r.orders.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// SetTenantLink records under which id the order exists on a tenant
func (r *MongoOrderRepository) SetTenantLink(ctx context.Context, referenceID string, link domain.TenantLink) error {
	update := bson.M{"$set": bson.M{
		"tenant": entity.MongoTenantLink{
			TenantID:      link.TenantID,
			TenantOrderID: link.TenantOrderID,
		},
		"updated_at": time.Now(),
	}}

	_, err := r.orders.UpdateOne(ctx, bson.M{"reference_id": referenceID}, update)
	if err != nil {
		return fmt.Errorf("failed to set tenant link: %w", err)
	}

	return nil
}

// SetERPOrder records the ERP-side order id and its status
func (r *MongoOrderRepository) SetERPOrder(ctx context.Context, referenceID, erpOrderID string, status domain.OrderStatus) error {
	update := bson.M{"$set": bson.M{
		"erp_order_id": erpOrderID,
		"erp_status":   string(status),
		"updated_at":   time.Now(),
	}}

	_, err := r.orders.UpdateOne(ctx, bson.M{"reference_id": referenceID}, update)
	if err != nil {
		return fmt.Errorf("failed to set erp order: %w", err)
	}

	return nil
}

// SetERPStatus records the last status successfully mirrored to the ERP
func (r *MongoOrderRepository) SetERPStatus(ctx context.Context, referenceID string, status domain.OrderStatus) error {
	update := bson.M{"$set": bson.M{
		"erp_status": string(status),
		"updated_at": time.Now(),
	}}

	_, err := r.orders.UpdateOne(ctx, bson.M{"reference_id": referenceID}, update)
	if err != nil {
		return fmt.Errorf("failed to set erp status: %w", err)
	}

	return nil
}

// Append stores a new polling checkpoint
func (r *MongoOrderRepository) Append(ctx context.Context, checkpoint *domain.OrderCheckpoint) error {
	doc := entity.MongoCheckpointDocFromDomain(checkpoint)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.checkpoints.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append checkpoint: %w", err)
	}

	return nil
}

// Latest returns the most recent polling checkpoint, or nil before the
// first poll ever ran
func (r *MongoOrderRepository) Latest(ctx context.Context) (*domain.OrderCheckpoint, error) {
	opts := options.FindOne().SetSort(bson.M{"_id": -1})

	var doc entity.MongoCheckpointDoc
	err := r.checkpoints.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest checkpoint: %w", err)
	}

	return doc.ToDomain(), nil
}
