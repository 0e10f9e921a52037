package application

import (
	"context"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/metrics"
	"markethub-integration-layer/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
)

// Function-field stubs for the ports the engines depend on. Unset
// fields behave as empty successes.

func newTestMetrics() *metrics.Set {
	return metrics.NewSet(prometheus.NewRegistry())
}

type orderRepoStub struct {
	getByReferenceID  func(ctx context.Context, referenceID string) (*domain.Order, error)
	insert            func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	findByShop        func(ctx context.Context, shopID string) ([]*domain.Order, error)
	conditionalUpdate func(ctx context.Context, referenceID string, expected, next domain.OrderStatus, meta map[string]time.Time) (bool, error)
	setTenantLink     func(ctx context.Context, referenceID string, link domain.TenantLink) error
	setERPOrder       func(ctx context.Context, referenceID, erpOrderID string, status domain.OrderStatus) error
	setERPStatus      func(ctx context.Context, referenceID string, status domain.OrderStatus) error
}

var _ ports.OrderRepository = (*orderRepoStub)(nil)

func (s *orderRepoStub) GetByReferenceID(ctx context.Context, referenceID string) (*domain.Order, error) {
	if s.getByReferenceID == nil {
		return nil, nil
	}
	return s.getByReferenceID(ctx, referenceID)
}

func (s *orderRepoStub) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if s.insert == nil {
		return order, nil
	}
	return s.insert(ctx, order)
}

func (s *orderRepoStub) FindByShop(ctx context.Context, shopID string) ([]*domain.Order, error) {
	if s.findByShop == nil {
		return nil, nil
	}
	return s.findByShop(ctx, shopID)
}

func (s *orderRepoStub) ConditionalUpdateStatus(ctx context.Context, referenceID string, expected, next domain.OrderStatus, meta map[string]time.Time) (bool, error) {
	if s.conditionalUpdate == nil {
		return true, nil
	}
	return s.conditionalUpdate(ctx, referenceID, expected, next, meta)
}

func (s *orderRepoStub) SetTenantLink(ctx context.Context, referenceID string, link domain.TenantLink) error {
	if s.setTenantLink == nil {
		return nil
	}
	return s.setTenantLink(ctx, referenceID, link)
}

func (s *orderRepoStub) SetERPOrder(ctx context.Context, referenceID, erpOrderID string, status domain.OrderStatus) error {
	if s.setERPOrder == nil {
		return nil
	}
	return s.setERPOrder(ctx, referenceID, erpOrderID, status)
}

func (s *orderRepoStub) SetERPStatus(ctx context.Context, referenceID string, status domain.OrderStatus) error {
	if s.setERPStatus == nil {
		return nil
	}
	return s.setERPStatus(ctx, referenceID, status)
}

type productRepoStub struct {
	getVariation         func(ctx context.Context, variationID string) (*domain.Variation, error)
	upsertVariationStock func(ctx context.Context, variationID string, stock int) (*domain.Variation, error)
	getBySKU             func(ctx context.Context, shopID, sku string) (*domain.Product, error)
	getByID              func(ctx context.Context, productID string) (*domain.Product, error)
	insert               func(ctx context.Context, product *domain.Product, variations []domain.Variation) (*domain.Product, error)
	updateFields         func(ctx context.Context, productID string, fields map[string]any) error
	delete               func(ctx context.Context, productID string) error
	findByShop           func(ctx context.Context, shopID string) ([]*domain.Product, error)
}

var _ ports.ProductRepository = (*productRepoStub)(nil)

func (s *productRepoStub) GetVariation(ctx context.Context, variationID string) (*domain.Variation, error) {
	if s.getVariation == nil {
		return nil, nil
	}
	return s.getVariation(ctx, variationID)
}

func (s *productRepoStub) UpsertVariationStock(ctx context.Context, variationID string, stock int) (*domain.Variation, error) {
	if s.upsertVariationStock == nil {
		return &domain.Variation{ID: variationID, Stock: stock}, nil
	}
	return s.upsertVariationStock(ctx, variationID, stock)
}

func (s *productRepoStub) GetBySKU(ctx context.Context, shopID, sku string) (*domain.Product, error) {
	if s.getBySKU == nil {
		return nil, nil
	}
	return s.getBySKU(ctx, shopID, sku)
}

func (s *productRepoStub) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	if s.getByID == nil {
		return nil, nil
	}
	return s.getByID(ctx, productID)
}

func (s *productRepoStub) Insert(ctx context.Context, product *domain.Product, variations []domain.Variation) (*domain.Product, error) {
	if s.insert == nil {
		return product, nil
	}
	return s.insert(ctx, product, variations)
}

func (s *productRepoStub) UpdateFields(ctx context.Context, productID string, fields map[string]any) error {
	if s.updateFields == nil {
		return nil
	}
	return s.updateFields(ctx, productID, fields)
}

func (s *productRepoStub) Delete(ctx context.Context, productID string) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(ctx, productID)
}

func (s *productRepoStub) FindByShop(ctx context.Context, shopID string) ([]*domain.Product, error) {
	if s.findByShop == nil {
		return nil, nil
	}
	return s.findByShop(ctx, shopID)
}

type systemsStub struct {
	getByShop        func(ctx context.Context, shopID string) (*domain.SystemIntegration, error)
	getByID          func(ctx context.Context, id string) (*domain.SystemIntegration, error)
	getByEcommerceID func(ctx context.Context, ecommerceID string) (*domain.SystemIntegration, error)
	upsert           func(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error)
}

var _ ports.SystemIntegrationRepository = (*systemsStub)(nil)

func (s *systemsStub) GetByShop(ctx context.Context, shopID string) (*domain.SystemIntegration, error) {
	if s.getByShop == nil {
		return nil, nil
	}
	return s.getByShop(ctx, shopID)
}

func (s *systemsStub) GetByID(ctx context.Context, id string) (*domain.SystemIntegration, error) {
	if s.getByID == nil {
		return nil, nil
	}
	return s.getByID(ctx, id)
}

func (s *systemsStub) GetByEcommerceID(ctx context.Context, ecommerceID string) (*domain.SystemIntegration, error) {
	if s.getByEcommerceID == nil {
		return nil, nil
	}
	return s.getByEcommerceID(ctx, ecommerceID)
}

func (s *systemsStub) Upsert(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error) {
	if s.upsert == nil {
		return integration, nil
	}
	return s.upsert(ctx, integration)
}

type tenantRepoStub struct {
	list             func(ctx context.Context) ([]*domain.Tenant, error)
	findByShop       func(ctx context.Context, shopID string) (*domain.Tenant, error)
	loginCredentials func(ctx context.Context, tenantID string) (*domain.LoginCredentials, error)
}

var _ ports.TenantRepository = (*tenantRepoStub)(nil)

func (s *tenantRepoStub) List(ctx context.Context) ([]*domain.Tenant, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx)
}

func (s *tenantRepoStub) FindByShop(ctx context.Context, shopID string) (*domain.Tenant, error) {
	if s.findByShop == nil {
		return nil, nil
	}
	return s.findByShop(ctx, shopID)
}

func (s *tenantRepoStub) LoginCredentials(ctx context.Context, tenantID string) (*domain.LoginCredentials, error) {
	if s.loginCredentials == nil {
		return nil, nil
	}
	return s.loginCredentials(ctx, tenantID)
}

type hubStub struct {
	fetchOrder          func(ctx context.Context, referenceID string) (*domain.Order, error)
	fetchOrdersByWindow func(ctx context.Context, from, to time.Time) ([]*domain.Order, error)
	fetchAllOrders      func(ctx context.Context) ([]*domain.Order, error)
	postOrder           func(ctx context.Context, tenantID string, order *domain.Order) (string, error)
	fetchTenantOrder    func(ctx context.Context, tenantID, tenantOrderID string) (*domain.Order, error)
	putOrderStatus      func(ctx context.Context, tenantID, referenceID string, status domain.OrderStatus) error
	fetchInvoice        func(ctx context.Context, referenceID string) (*domain.Invoice, error)
	postInvoice         func(ctx context.Context, tenantID, referenceID string, invoice *domain.Invoice) error
	fetchTracking       func(ctx context.Context, referenceID string) (*domain.Tracking, error)
	postTracking        func(ctx context.Context, tenantID, referenceID string, tracking *domain.Tracking) error
	fetchCatalogPage    func(ctx context.Context, tenantID, statusFilter string, offset int) ([]domain.CatalogItem, error)
	postProducts        func(ctx context.Context, tenantID string, product *domain.Product) error
	deleteProduct       func(ctx context.Context, tenantID, sku string) error
	putStock            func(ctx context.Context, variationID string, available int) error
	putPrice            func(ctx context.Context, variationID string, base, sale float64) error
	fetchStock          func(ctx context.Context, tenantID, variationID string) (int, error)
	mapSKUs             func(ctx context.Context, tenantID string, pairs []domain.SKUMapping) error
}

var _ ports.HubGateway = (*hubStub)(nil)

func (s *hubStub) FetchOrder(ctx context.Context, referenceID string) (*domain.Order, error) {
	if s.fetchOrder == nil {
		return nil, nil
	}
	return s.fetchOrder(ctx, referenceID)
}

func (s *hubStub) FetchOrdersByWindow(ctx context.Context, from, to time.Time) ([]*domain.Order, error) {
	if s.fetchOrdersByWindow == nil {
		return nil, nil
	}
	return s.fetchOrdersByWindow(ctx, from, to)
}

func (s *hubStub) FetchAllOrders(ctx context.Context) ([]*domain.Order, error) {
	if s.fetchAllOrders == nil {
		return nil, nil
	}
	return s.fetchAllOrders(ctx)
}

func (s *hubStub) PostOrder(ctx context.Context, tenantID string, order *domain.Order) (string, error) {
	if s.postOrder == nil {
		return "", nil
	}
	return s.postOrder(ctx, tenantID, order)
}

func (s *hubStub) FetchTenantOrder(ctx context.Context, tenantID, tenantOrderID string) (*domain.Order, error) {
	if s.fetchTenantOrder == nil {
		return nil, nil
	}
	return s.fetchTenantOrder(ctx, tenantID, tenantOrderID)
}

func (s *hubStub) PutOrderStatus(ctx context.Context, tenantID, referenceID string, status domain.OrderStatus) error {
	if s.putOrderStatus == nil {
		return nil
	}
	return s.putOrderStatus(ctx, tenantID, referenceID, status)
}

func (s *hubStub) FetchInvoice(ctx context.Context, referenceID string) (*domain.Invoice, error) {
	if s.fetchInvoice == nil {
		return nil, nil
	}
	return s.fetchInvoice(ctx, referenceID)
}

func (s *hubStub) PostInvoice(ctx context.Context, tenantID, referenceID string, invoice *domain.Invoice) error {
	if s.postInvoice == nil {
		return nil
	}
	return s.postInvoice(ctx, tenantID, referenceID, invoice)
}

func (s *hubStub) FetchTracking(ctx context.Context, referenceID string) (*domain.Tracking, error) {
	if s.fetchTracking == nil {
		return nil, nil
	}
	return s.fetchTracking(ctx, referenceID)
}

func (s *hubStub) PostTracking(ctx context.Context, tenantID, referenceID string, tracking *domain.Tracking) error {
	if s.postTracking == nil {
		return nil
	}
	return s.postTracking(ctx, tenantID, referenceID, tracking)
}

func (s *hubStub) FetchCatalogPage(ctx context.Context, tenantID, statusFilter string, offset int) ([]domain.CatalogItem, error) {
	if s.fetchCatalogPage == nil {
		return nil, nil
	}
	return s.fetchCatalogPage(ctx, tenantID, statusFilter, offset)
}

func (s *hubStub) PostProducts(ctx context.Context, tenantID string, product *domain.Product) error {
	if s.postProducts == nil {
		return nil
	}
	return s.postProducts(ctx, tenantID, product)
}

func (s *hubStub) DeleteProduct(ctx context.Context, tenantID, sku string) error {
	if s.deleteProduct == nil {
		return nil
	}
	return s.deleteProduct(ctx, tenantID, sku)
}

func (s *hubStub) PutStock(ctx context.Context, variationID string, available int) error {
	if s.putStock == nil {
		return nil
	}
	return s.putStock(ctx, variationID, available)
}

func (s *hubStub) PutPrice(ctx context.Context, variationID string, base, sale float64) error {
	if s.putPrice == nil {
		return nil
	}
	return s.putPrice(ctx, variationID, base, sale)
}

func (s *hubStub) FetchStock(ctx context.Context, tenantID, variationID string) (int, error) {
	if s.fetchStock == nil {
		return 0, nil
	}
	return s.fetchStock(ctx, tenantID, variationID)
}

func (s *hubStub) MapSKUs(ctx context.Context, tenantID string, pairs []domain.SKUMapping) error {
	if s.mapSKUs == nil {
		return nil
	}
	return s.mapSKUs(ctx, tenantID, pairs)
}

type erpStub struct {
	probe      func(ctx context.Context, token string) error
	pushOrder  func(ctx context.Context, token string, order *domain.Order) (string, error)
	pushStatus func(ctx context.Context, token, erpOrderID string, status domain.OrderStatus) error
	fetchStock func(ctx context.Context, token, mappingID string) (int, error)
}

var _ ports.ERPGateway = (*erpStub)(nil)

func (s *erpStub) Probe(ctx context.Context, token string) error {
	if s.probe == nil {
		return nil
	}
	return s.probe(ctx, token)
}

func (s *erpStub) PushOrder(ctx context.Context, token string, order *domain.Order) (string, error) {
	if s.pushOrder == nil {
		return "", nil
	}
	return s.pushOrder(ctx, token, order)
}

func (s *erpStub) PushStatus(ctx context.Context, token, erpOrderID string, status domain.OrderStatus) error {
	if s.pushStatus == nil {
		return nil
	}
	return s.pushStatus(ctx, token, erpOrderID, status)
}

func (s *erpStub) FetchStock(ctx context.Context, token, mappingID string) (int, error) {
	if s.fetchStock == nil {
		return 0, nil
	}
	return s.fetchStock(ctx, token, mappingID)
}

type credentialRepoStub struct {
	get    func(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error)
	put    func(ctx context.Context, credential *domain.Credential) error
	delete func(ctx context.Context, scope domain.CredentialScope, accessToken string) error
	list   func(ctx context.Context) ([]*domain.Credential, error)
}

var _ ports.CredentialRepository = (*credentialRepoStub)(nil)

func (s *credentialRepoStub) Get(ctx context.Context, scope domain.CredentialScope) (*domain.Credential, error) {
	if s.get == nil {
		return nil, nil
	}
	return s.get(ctx, scope)
}

func (s *credentialRepoStub) Put(ctx context.Context, credential *domain.Credential) error {
	if s.put == nil {
		return nil
	}
	return s.put(ctx, credential)
}

func (s *credentialRepoStub) Delete(ctx context.Context, scope domain.CredentialScope, accessToken string) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(ctx, scope, accessToken)
}

func (s *credentialRepoStub) List(ctx context.Context) ([]*domain.Credential, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx)
}

type authStub struct {
	login   func(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error)
	refresh func(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error)
}

var _ ports.AuthGateway = (*authStub)(nil)

func (s *authStub) Login(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
	if s.login == nil {
		return &domain.Credential{Scope: scope}, nil
	}
	return s.login(ctx, scope, login)
}

func (s *authStub) Refresh(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error) {
	if s.refresh == nil {
		return &domain.Credential{Scope: scope}, nil
	}
	return s.refresh(ctx, scope, refreshToken)
}

type checkpointStub struct {
	append func(ctx context.Context, checkpoint *domain.OrderCheckpoint) error
	latest func(ctx context.Context) (*domain.OrderCheckpoint, error)
}

var _ ports.CheckpointRepository = (*checkpointStub)(nil)

func (s *checkpointStub) Append(ctx context.Context, checkpoint *domain.OrderCheckpoint) error {
	if s.append == nil {
		return nil
	}
	return s.append(ctx, checkpoint)
}

func (s *checkpointStub) Latest(ctx context.Context) (*domain.OrderCheckpoint, error) {
	if s.latest == nil {
		return nil, nil
	}
	return s.latest(ctx)
}

// busStub records every published event for assertions. Not safe for
// concurrent publishers; the tests using it are single-threaded.
type busStub struct {
	events []publishedEvent
}

type publishedEvent struct {
	name    string
	payload any
}

var _ ports.EventBus = (*busStub)(nil)

func (b *busStub) Publish(ctx context.Context, event string, payload any) {
	b.events = append(b.events, publishedEvent{name: event, payload: payload})
}

func (b *busStub) Subscribe(event string, handler ports.EventHandler) {}

func (b *busStub) named(name string) []any {
	var payloads []any
	for _, event := range b.events {
		if event.name == name {
			payloads = append(payloads, event.payload)
		}
	}
	return payloads
}
