package ports

import (
	"context"
	"time"

	"markethub-integration-layer/internal/domain"
)

// HubGateway is the typed client for the Hub aggregator API. A tenantID of
// "" addresses the hub's main account; otherwise the call authenticates as
// that tenant sub-account. All calls apply a bounded timeout and surface
// HTTP-level failures wrapped in domain.ErrTransport.
type HubGateway interface {
	// Orders
	FetchOrder(ctx context.Context, referenceID string) (*domain.Order, error)
	FetchOrdersByWindow(ctx context.Context, from, to time.Time) ([]*domain.Order, error)
	FetchAllOrders(ctx context.Context) ([]*domain.Order, error)
	PostOrder(ctx context.Context, tenantID string, order *domain.Order) (string, error)
	FetchTenantOrder(ctx context.Context, tenantID, tenantOrderID string) (*domain.Order, error)
	PutOrderStatus(ctx context.Context, tenantID, referenceID string, status domain.OrderStatus) error

	// Fiscal documents and shipping
	FetchInvoice(ctx context.Context, referenceID string) (*domain.Invoice, error)
	PostInvoice(ctx context.Context, tenantID, referenceID string, invoice *domain.Invoice) error
	FetchTracking(ctx context.Context, referenceID string) (*domain.Tracking, error)
	PostTracking(ctx context.Context, tenantID, referenceID string, tracking *domain.Tracking) error

	// Catalog and inventory
	FetchCatalogPage(ctx context.Context, tenantID, statusFilter string, offset int) ([]domain.CatalogItem, error)
	PostProducts(ctx context.Context, tenantID string, product *domain.Product) error
	DeleteProduct(ctx context.Context, tenantID, sku string) error
	PutStock(ctx context.Context, variationID string, available int) error
	PutPrice(ctx context.Context, variationID string, base, sale float64) error
	FetchStock(ctx context.Context, tenantID, variationID string) (int, error)
	MapSKUs(ctx context.Context, tenantID string, pairs []domain.SKUMapping) error
}

// AuthGateway performs the Hub's oauth2 password and refresh-token grants.
// It is the only gateway surface the credential manager touches.
type AuthGateway interface {
	Login(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error)
	Refresh(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error)
}

// TokenProvider resolves a valid access token for a scope before a gateway
// call. Implemented by the credential manager.
type TokenProvider interface {
	Token(ctx context.Context, scope domain.CredentialScope) (string, error)
}

// LoginSource resolves the password-grant credentials for a scope: static
// configuration for the global and agency scopes, per-tenant stored
// credentials otherwise.
type LoginSource interface {
	LoginFor(ctx context.Context, scope domain.CredentialScope) (*domain.LoginCredentials, error)
}

// ERPGateway is the typed client for the downstream ERP ("ERP-A"). The
// token is the shop-scoped API token stored on the SystemIntegration.
type ERPGateway interface {
	Probe(ctx context.Context, token string) error
	PushOrder(ctx context.Context, token string, order *domain.Order) (string, error)
	PushStatus(ctx context.Context, token, erpOrderID string, status domain.OrderStatus) error
	FetchStock(ctx context.Context, token, mappingID string) (int, error)
}

// Mailer delivers operator-facing notifications. Actual delivery is an
// external collaborator; implementations may simply log.
type Mailer interface {
	SendOrderApproved(ctx context.Context, shopID, referenceID string) error
}
