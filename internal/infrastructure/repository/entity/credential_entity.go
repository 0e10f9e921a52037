package entity

import (
	"markethub-integration-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCredentialDoc represents one issued access token in MongoDB.
// Multiple rows may exist per scope; the newest by issued_at is current.
type MongoCredentialDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Scope        string             `bson:"scope"`
	AccessToken  string             `bson:"access_token"`
	RefreshToken string             `bson:"refresh_token,omitempty"`
	TokenType    string             `bson:"token_type,omitempty"`
	ExpiresIn    int64              `bson:"expires_in"`
	IssuedAt     int64              `bson:"issued_at"`
}

func (d *MongoCredentialDoc) ToDomain() *domain.Credential {
	return &domain.Credential{
		Scope:        domain.CredentialScope(d.Scope),
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		TokenType:    d.TokenType,
		ExpiresIn:    d.ExpiresIn,
		IssuedAt:     d.IssuedAt,
	}
}

func MongoCredentialDocFromDomain(credential *domain.Credential) *MongoCredentialDoc {
	return &MongoCredentialDoc{
		Scope:        string(credential.Scope),
		AccessToken:  credential.AccessToken,
		RefreshToken: credential.RefreshToken,
		TokenType:    credential.TokenType,
		ExpiresIn:    credential.ExpiresIn,
		IssuedAt:     credential.IssuedAt,
	}
}
