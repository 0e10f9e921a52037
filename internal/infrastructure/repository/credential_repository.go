package repository

import (
	"context"
	"fmt"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/repository/entity"
	"markethub-integration-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCredentialRepository implements CredentialRepository using MongoDB.
// Tokens accumulate per scope; Get resolves the newest grant and the
// janitor sweep deletes the rest.
type MongoCredentialRepository struct {
	credentials *mongo.Collection
}

// NewMongoCredentialRepository creates a new MongoDB credential repository
func NewMongoCredentialRepository(db *mongo.Database) *MongoCredentialRepository {
	return &MongoCredentialRepository{
		credentials: db.Collection("credentials"),
	}
}

var _ ports.CredentialRepository = (*MongoCredentialRepository)(nil)

// Get retrieves the most recently issued credential for a scope
func (r *MongoCredentialRepository) Get(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
	opts := options.FindOne().SetSort(bson.M{"issued_at": -1})

	var doc entity.MongoCredentialDoc
	err := r.credentials.FindOne(ctx, bson.M{"scope": string(scope)}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return doc.ToDomain(), nil
}

// Put stores a credential, replacing a prior row for the same token
func (r *MongoCredentialRepository) Put(ctx context.Context, credential *domain.Credential) error {
	doc := entity.MongoCredentialDocFromDomain(credential)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{
		"scope":        doc.Scope,
		"access_token": doc.AccessToken,
	}

	_, err := r.credentials.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// Delete removes one stored token of a scope
func (r *MongoCredentialRepository) Delete(ctx context.Context, scope domain.CredentialScope, accessToken string) error {
	filter := bson.M{
		"scope":        string(scope),
		"access_token": accessToken,
	}

	_, err := r.credentials.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}

// List retrieves every stored credential across all scopes
func (r *MongoCredentialRepository) List(ctx context.Context) ([]*domain.Credential, error) {
	cursor, err := r.credentials.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var credentials []*domain.Credential
	for cursor.Next(ctx) {
		var doc entity.MongoCredentialDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode credential: %w", err)
		}
		credentials = append(credentials, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return credentials, nil
}
