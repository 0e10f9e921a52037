package listeners

import (
	"context"
	"testing"
	"time"

	"markethub-integration-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderStoreStub struct {
	tenantLinks map[string]domain.TenantLink
	erpOrders   map[string]string
}

func newOrderStoreStub() *orderStoreStub {
	return &orderStoreStub{
		tenantLinks: map[string]domain.TenantLink{},
		erpOrders:   map[string]string{},
	}
}

func (s *orderStoreStub) GetByReferenceID(ctx context.Context, referenceID string) (*domain.Order, error) {
	return nil, nil
}

func (s *orderStoreStub) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return order, nil
}

func (s *orderStoreStub) FindByShop(ctx context.Context, shopID string) ([]*domain.Order, error) {
	return nil, nil
}

func (s *orderStoreStub) ConditionalUpdateStatus(ctx context.Context, referenceID string, expected, next domain.OrderStatus, meta map[string]time.Time) (bool, error) {
	return true, nil
}

func (s *orderStoreStub) SetTenantLink(ctx context.Context, referenceID string, link domain.TenantLink) error {
	s.tenantLinks[referenceID] = link
	return nil
}

func (s *orderStoreStub) SetERPOrder(ctx context.Context, referenceID, erpOrderID string, status domain.OrderStatus) error {
	s.erpOrders[referenceID] = erpOrderID
	return nil
}

func (s *orderStoreStub) SetERPStatus(ctx context.Context, referenceID string, status domain.OrderStatus) error {
	return nil
}

type tenantsStub struct {
	byShop map[string]*domain.Tenant
}

func (s *tenantsStub) List(ctx context.Context) ([]*domain.Tenant, error) { return nil, nil }

func (s *tenantsStub) FindByShop(ctx context.Context, shopID string) (*domain.Tenant, error) {
	return s.byShop[shopID], nil
}

func (s *tenantsStub) LoginCredentials(ctx context.Context, tenantID string) (*domain.LoginCredentials, error) {
	return nil, nil
}

type integrationsStub struct {
	byShop map[string]*domain.SystemIntegration
}

func (s *integrationsStub) GetByShop(ctx context.Context, shopID string) (*domain.SystemIntegration, error) {
	return s.byShop[shopID], nil
}

func (s *integrationsStub) GetByID(ctx context.Context, id string) (*domain.SystemIntegration, error) {
	return nil, nil
}

func (s *integrationsStub) GetByEcommerceID(ctx context.Context, ecommerceID string) (*domain.SystemIntegration, error) {
	return nil, nil
}

func (s *integrationsStub) Upsert(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error) {
	return integration, nil
}

type hubGatewayStub struct {
	postedOrders    []string
	stockPuts       map[string]int
	pricePuts       map[string]float64
	postedProducts  []string
	deletedProducts []string
}

func newHubGatewayStub() *hubGatewayStub {
	return &hubGatewayStub{stockPuts: map[string]int{}, pricePuts: map[string]float64{}}
}

func (s *hubGatewayStub) FetchOrder(ctx context.Context, referenceID string) (*domain.Order, error) {
	return nil, nil
}

func (s *hubGatewayStub) FetchOrdersByWindow(ctx context.Context, from, to time.Time) ([]*domain.Order, error) {
	return nil, nil
}

func (s *hubGatewayStub) FetchAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return nil, nil
}

func (s *hubGatewayStub) PostOrder(ctx context.Context, tenantID string, order *domain.Order) (string, error) {
	s.postedOrders = append(s.postedOrders, order.ReferenceID)
	return "t-ord-" + order.ReferenceID, nil
}

func (s *hubGatewayStub) FetchTenantOrder(ctx context.Context, tenantID, tenantOrderID string) (*domain.Order, error) {
	return nil, nil
}

func (s *hubGatewayStub) PutOrderStatus(ctx context.Context, tenantID, referenceID string, status domain.OrderStatus) error {
	return nil
}

func (s *hubGatewayStub) FetchInvoice(ctx context.Context, referenceID string) (*domain.Invoice, error) {
	return nil, nil
}

func (s *hubGatewayStub) PostInvoice(ctx context.Context, tenantID, referenceID string, invoice *domain.Invoice) error {
	return nil
}

func (s *hubGatewayStub) FetchTracking(ctx context.Context, referenceID string) (*domain.Tracking, error) {
	return nil, nil
}

func (s *hubGatewayStub) PostTracking(ctx context.Context, tenantID, referenceID string, tracking *domain.Tracking) error {
	return nil
}

func (s *hubGatewayStub) FetchCatalogPage(ctx context.Context, tenantID, statusFilter string, offset int) ([]domain.CatalogItem, error) {
	return nil, nil
}

func (s *hubGatewayStub) PostProducts(ctx context.Context, tenantID string, product *domain.Product) error {
	s.postedProducts = append(s.postedProducts, product.SKU)
	return nil
}

func (s *hubGatewayStub) DeleteProduct(ctx context.Context, tenantID, sku string) error {
	s.deletedProducts = append(s.deletedProducts, sku)
	return nil
}

func (s *hubGatewayStub) PutStock(ctx context.Context, variationID string, available int) error {
	s.stockPuts[variationID] = available
	return nil
}

func (s *hubGatewayStub) PutPrice(ctx context.Context, variationID string, base, sale float64) error {
	s.pricePuts[variationID] = sale
	return nil
}

func (s *hubGatewayStub) FetchStock(ctx context.Context, tenantID, variationID string) (int, error) {
	return 0, nil
}

func (s *hubGatewayStub) MapSKUs(ctx context.Context, tenantID string, pairs []domain.SKUMapping) error {
	return nil
}

type erpGatewayStub struct {
	pushedOrders []string
}

func (s *erpGatewayStub) Probe(ctx context.Context, token string) error { return nil }

func (s *erpGatewayStub) PushOrder(ctx context.Context, token string, order *domain.Order) (string, error) {
	s.pushedOrders = append(s.pushedOrders, order.ReferenceID)
	return "erp-" + order.ReferenceID, nil
}

func (s *erpGatewayStub) PushStatus(ctx context.Context, token, erpOrderID string, status domain.OrderStatus) error {
	return nil
}

func (s *erpGatewayStub) FetchStock(ctx context.Context, token, mappingID string) (int, error) {
	return 0, nil
}

type mailerStub struct {
	sent []string
}

func (s *mailerStub) SendOrderApproved(ctx context.Context, shopID, referenceID string) error {
	s.sent = append(s.sent, referenceID)
	return nil
}

func TestOnOrderNewForwardsToTenantShop(t *testing.T) {
	store := newOrderStoreStub()
	hub := newHubGatewayStub()
	erp := &erpGatewayStub{}
	l := NewOrderListeners(store,
		&tenantsStub{byShop: map[string]*domain.Tenant{"shop-1": {ID: "t-1", ShopID: "shop-1"}}},
		&integrationsStub{byShop: map[string]*domain.SystemIntegration{}},
		hub, erp, &mailerStub{}, zerolog.Nop())

	order := &domain.Order{ReferenceID: "ord-1", ShopID: "shop-1", Status: domain.StatusPending}
	require.NoError(t, l.OnOrderNew(context.Background(), domain.OrderNewEvent{Order: order}))

	assert.Equal(t, []string{"ord-1"}, hub.postedOrders)
	assert.Empty(t, erp.pushedOrders)
	assert.Equal(t, domain.TenantLink{TenantID: "t-1", TenantOrderID: "t-ord-ord-1"}, store.tenantLinks["ord-1"])
	require.NotNil(t, order.Tenant)
}

func TestOnOrderNewExportsToERPWhenNoTenant(t *testing.T) {
	store := newOrderStoreStub()
	hub := newHubGatewayStub()
	erp := &erpGatewayStub{}
	l := NewOrderListeners(store,
		&tenantsStub{byShop: map[string]*domain.Tenant{}},
		&integrationsStub{byShop: map[string]*domain.SystemIntegration{
			"shop-1": {ShopID: "shop-1", Token: "tok", Active: true},
		}},
		hub, erp, &mailerStub{}, zerolog.Nop())

	order := &domain.Order{ReferenceID: "ord-2", ShopID: "shop-1", Status: domain.StatusPending}
	require.NoError(t, l.OnOrderNew(context.Background(), domain.OrderNewEvent{Order: order}))

	assert.Empty(t, hub.postedOrders)
	assert.Equal(t, []string{"ord-2"}, erp.pushedOrders)
	assert.Equal(t, "erp-ord-2", store.erpOrders["ord-2"])
	assert.Equal(t, "erp-ord-2", order.ERPOrderID)
}

func TestOnOrderNewLeavesLimboOrdersAlone(t *testing.T) {
	hub := newHubGatewayStub()
	erp := &erpGatewayStub{}
	l := NewOrderListeners(newOrderStoreStub(),
		&tenantsStub{byShop: map[string]*domain.Tenant{}},
		&integrationsStub{byShop: map[string]*domain.SystemIntegration{}},
		hub, erp, &mailerStub{}, zerolog.Nop())

	order := &domain.Order{ReferenceID: "ord-3", ShopID: domain.LimboShopID}
	require.NoError(t, l.OnOrderNew(context.Background(), domain.OrderNewEvent{Order: order}))

	assert.Empty(t, hub.postedOrders)
	assert.Empty(t, erp.pushedOrders)
}

func TestOnOrderApprovedNotifiesSeller(t *testing.T) {
	mailer := &mailerStub{}
	l := NewOrderListeners(newOrderStoreStub(), &tenantsStub{}, &integrationsStub{},
		newHubGatewayStub(), &erpGatewayStub{}, mailer, zerolog.Nop())

	err := l.OnOrderApproved(context.Background(), domain.OrderApprovedEvent{
		Order: &domain.Order{ReferenceID: "ord-1", ShopID: "shop-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"ord-1"}, mailer.sent)
}

func TestOnStockUpdatedDoesNotEchoHubChanges(t *testing.T) {
	hub := newHubGatewayStub()
	l := NewProductListeners(hub, zerolog.Nop())

	require.NoError(t, l.OnStockUpdated(context.Background(), domain.StockEvent{
		VariationID: "var-1",
		Available:   4,
		Origin:      domain.StockOriginHub,
	}))
	assert.Empty(t, hub.stockPuts)

	require.NoError(t, l.OnStockUpdated(context.Background(), domain.StockEvent{
		VariationID: "var-1",
		Available:   4,
		Origin:      domain.StockOriginERP,
	}))
	assert.Equal(t, 4, hub.stockPuts["var-1"])
}

func TestOnProductCreatedPublishesToHub(t *testing.T) {
	hub := newHubGatewayStub()
	l := NewProductListeners(hub, zerolog.Nop())

	err := l.OnProductCreated(context.Background(), domain.ProductEvent{
		Product: &domain.Product{SKU: "widget"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"widget"}, hub.postedProducts)
}

func TestOnProductDeletedWithdrawsFromHub(t *testing.T) {
	hub := newHubGatewayStub()
	l := NewProductListeners(hub, zerolog.Nop())

	err := l.OnProductDeleted(context.Background(), domain.ProductEvent{
		Product: &domain.Product{SKU: "widget"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"widget"}, hub.deletedProducts)
}

func TestListenersRejectForeignPayloads(t *testing.T) {
	l := NewProductListeners(newHubGatewayStub(), zerolog.Nop())
	assert.Error(t, l.OnStockUpdated(context.Background(), "not an event"))
}
