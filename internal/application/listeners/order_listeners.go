package listeners

import (
	"context"
	"fmt"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OrderListeners reacts to order lifecycle events. Each handler is
// subscribed explicitly at the composition root so the event wiring is
// readable in one place.
type OrderListeners struct {
	orders  ports.OrderRepository
	tenants ports.TenantRepository
	systems ports.SystemIntegrationRepository
	hub     ports.HubGateway
	erp     ports.ERPGateway
	mailer  ports.Mailer
	logger  zerolog.Logger
}

// NewOrderListeners creates the order event handlers.
func NewOrderListeners(
	orders ports.OrderRepository,
	tenants ports.TenantRepository,
	systems ports.SystemIntegrationRepository,
	hub ports.HubGateway,
	erp ports.ERPGateway,
	mailer ports.Mailer,
	logger zerolog.Logger,
) *OrderListeners {
	return &OrderListeners{
		orders:  orders,
		tenants: tenants,
		systems: systems,
		hub:     hub,
		erp:     erp,
		mailer:  mailer,
		logger:  logger,
	}
}

// OnOrderNew forwards a first-seen order to whoever fulfills it: the
// tenant owning the shop if there is one, otherwise the shop's ERP. The
// link recorded here is what later transitions sync through. Orders in
// limbo are forwarded nowhere; they wait for operator triage.
func (l *OrderListeners) OnOrderNew(ctx context.Context, payload any) error {
	event, ok := payload.(domain.OrderNewEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	order := event.Order

	if order.ShopID == domain.LimboShopID {
		l.logger.Warn().
			Str("reference_id", order.ReferenceID).
			Msg("Order in limbo, not forwarded")
		return nil
	}

	tenant, err := l.tenants.FindByShop(ctx, order.ShopID)
	if err != nil {
		return fmt.Errorf("resolve tenant for shop %s: %w", order.ShopID, err)
	}
	if tenant != nil {
		tenantOrderID, err := l.hub.PostOrder(ctx, tenant.ID, order)
		if err != nil {
			return fmt.Errorf("forward order %s to tenant %s: %w", order.ReferenceID, tenant.ID, err)
		}
		link := domain.TenantLink{TenantID: tenant.ID, TenantOrderID: tenantOrderID}
		if err := l.orders.SetTenantLink(ctx, order.ReferenceID, link); err != nil {
			return fmt.Errorf("record tenant link %s: %w", order.ReferenceID, err)
		}
		order.Tenant = &link

		l.logger.Info().
			Str("reference_id", order.ReferenceID).
			Str("tenant_id", tenant.ID).
			Str("tenant_order_id", tenantOrderID).
			Msg("Order forwarded to tenant")
		return nil
	}

	integration, err := l.systems.GetByShop(ctx, order.ShopID)
	if err != nil {
		return fmt.Errorf("resolve integration for shop %s: %w", order.ShopID, err)
	}
	if integration == nil || !integration.Active {
		return nil
	}

	erpOrderID, err := l.erp.PushOrder(ctx, integration.Token, order)
	if err != nil {
		return fmt.Errorf("export order %s to erp: %w", order.ReferenceID, err)
	}
	if err := l.orders.SetERPOrder(ctx, order.ReferenceID, erpOrderID, order.Status); err != nil {
		return fmt.Errorf("record erp order %s: %w", order.ReferenceID, err)
	}
	order.ERPOrderID = erpOrderID
	order.ERPStatus = order.Status

	l.logger.Info().
		Str("reference_id", order.ReferenceID).
		Str("erp_order_id", erpOrderID).
		Msg("Order exported to ERP")
	return nil
}

// OnOrderApproved notifies the seller that the order can be prepared.
func (l *OrderListeners) OnOrderApproved(ctx context.Context, payload any) error {
	event, ok := payload.(domain.OrderApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	return l.mailer.SendOrderApproved(ctx, event.Order.ShopID, event.Order.ReferenceID)
}

// OnOrderUpdated is the audit trail for every genuine transition. The
// downstream pushes happen inside the reconciliation engine; this
// handler only observes.
func (l *OrderListeners) OnOrderUpdated(ctx context.Context, payload any) error {
	event, ok := payload.(domain.OrderUpdatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}

	l.logger.Info().
		Str("reference_id", event.Order.ReferenceID).
		Str("shop_id", event.Order.ShopID).
		Str("status", string(event.Status)).
		Str("source", event.Source).
		Msg("Order transition observed")
	return nil
}
