package entity

import (
	"time"

	"markethub-integration-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoSystemIntegrationDoc represents a per-shop ERP configuration in MongoDB
type MongoSystemIntegrationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ShopID      string             `bson:"shop_id"`
	SystemName  string             `bson:"system_name"`
	Token       string             `bson:"token"`
	EcommerceID string             `bson:"ecommerce_id,omitempty"`
	Active      bool               `bson:"active"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *MongoSystemIntegrationDoc) ToDomain() *domain.SystemIntegration {
	return &domain.SystemIntegration{
		ID:          d.ID.Hex(),
		ShopID:      d.ShopID,
		SystemName:  d.SystemName,
		Token:       d.Token,
		EcommerceID: d.EcommerceID,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func MongoSystemIntegrationDocFromDomain(integration *domain.SystemIntegration) *MongoSystemIntegrationDoc {
	doc := &MongoSystemIntegrationDoc{
		ShopID:      integration.ShopID,
		SystemName:  integration.SystemName,
		Token:       integration.Token,
		EcommerceID: integration.EcommerceID,
		Active:      integration.Active,
		CreatedAt:   integration.CreatedAt,
		UpdatedAt:   integration.UpdatedAt,
	}

	if integration.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(integration.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}

// MongoTenantDoc represents a tenant sub-account in MongoDB. The hub
// login fields stay in storage and never travel on the domain entity.
type MongoTenantDoc struct {
	ID          string `bson:"_id"`
	ShopID      string `bson:"shop_id"`
	Name        string `bson:"name"`
	OwnerEmail  string `bson:"owner_email"`
	HubUsername string `bson:"hub_username"`
	HubPassword string `bson:"hub_password"`
	OAuthScope  string `bson:"oauth_scope,omitempty"`
}

func (d *MongoTenantDoc) ToDomain() *domain.Tenant {
	return &domain.Tenant{
		ID:         d.ID,
		ShopID:     d.ShopID,
		Name:       d.Name,
		OwnerEmail: d.OwnerEmail,
	}
}

// Login returns the hub password-grant credentials stored on the tenant.
func (d *MongoTenantDoc) Login() *domain.LoginCredentials {
	return &domain.LoginCredentials{
		Username:   d.HubUsername,
		Password:   d.HubPassword,
		OAuthScope: d.OAuthScope,
	}
}
