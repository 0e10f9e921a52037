package ports

import (
	"context"
	"time"

	"markethub-integration-layer/internal/domain"
)

// OrderRepository persists marketplace orders. Lookups that find nothing
// return (nil, nil); errors are reserved for storage failures.
type OrderRepository interface {
	GetByReferenceID(ctx context.Context, referenceID string) (*domain.Order, error)

	// Insert stores a new order. Reference ids are unique: inserting one
	// that already exists fails with domain.ErrDuplicate.
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)

	FindByShop(ctx context.Context, shopID string) ([]*domain.Order, error)

	// ConditionalUpdateStatus applies the status change only while the
	// stored status still equals expected, returning whether it applied.
	// Losing the race is not an error: the winner runs the side effects.
	ConditionalUpdateStatus(ctx context.Context, referenceID string, expected, next domain.OrderStatus, meta map[string]time.Time) (bool, error)

	SetTenantLink(ctx context.Context, referenceID string, link domain.TenantLink) error
	SetERPOrder(ctx context.Context, referenceID, erpOrderID string, status domain.OrderStatus) error
	SetERPStatus(ctx context.Context, referenceID string, status domain.OrderStatus) error
}

// ProductRepository persists catalog products and their variations.
type ProductRepository interface {
	GetVariation(ctx context.Context, variationID string) (*domain.Variation, error)
	UpsertVariationStock(ctx context.Context, variationID string, stock int) (*domain.Variation, error)
	GetBySKU(ctx context.Context, shopID, sku string) (*domain.Product, error)
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
	Insert(ctx context.Context, product *domain.Product, variations []domain.Variation) (*domain.Product, error)
	UpdateFields(ctx context.Context, productID string, fields map[string]any) error
	Delete(ctx context.Context, productID string) error
	FindByShop(ctx context.Context, shopID string) ([]*domain.Product, error)
}

// CredentialRepository persists per-scope access tokens.
type CredentialRepository interface {
	Get(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error)
	Put(ctx context.Context, credential *domain.Credential) error
	Delete(ctx context.Context, scope domain.CredentialScope, accessToken string) error
	List(ctx context.Context) ([]*domain.Credential, error)
}

// CheckpointRepository records order-polling progress. Append-only; the
// latest row by insertion order is the resume point.
type CheckpointRepository interface {
	Append(ctx context.Context, checkpoint *domain.OrderCheckpoint) error
	Latest(ctx context.Context) (*domain.OrderCheckpoint, error)
}

// SystemIntegrationRepository persists per-shop ERP configuration.
type SystemIntegrationRepository interface {
	GetByShop(ctx context.Context, shopID string) (*domain.SystemIntegration, error)
	GetByID(ctx context.Context, id string) (*domain.SystemIntegration, error)
	GetByEcommerceID(ctx context.Context, ecommerceID string) (*domain.SystemIntegration, error)
	Upsert(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error)
}

// TenantRepository lists the tenant sub-accounts known to the platform.
type TenantRepository interface {
	List(ctx context.Context) ([]*domain.Tenant, error)
	FindByShop(ctx context.Context, shopID string) (*domain.Tenant, error)
	LoginCredentials(ctx context.Context, tenantID string) (*domain.LoginCredentials, error)
}
