package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/metrics"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ObservationSource identifies which channel delivered a status
// observation. Observations are idempotent regardless of source; the
// label exists for logging and metrics.
type ObservationSource string

const (
	SourceWebhook ObservationSource = "webhook"
	SourcePoll    ObservationSource = "poll"
	SourceManual  ObservationSource = "manual"
)

// TransitionOutcome classifies what an observation did.
type TransitionOutcome string

const (
	// OutcomeApplied means the observation won the transition and ran
	// the side effects.
	OutcomeApplied TransitionOutcome = "applied"
	// OutcomeNoOp means the observation was a duplicate or lost a
	// concurrent race; no side effect ran.
	OutcomeNoOp TransitionOutcome = "noop"
	// OutcomePartial means the transition committed but at least one
	// downstream sync failed. The failed part heals on the next tick.
	OutcomePartial TransitionOutcome = "partial"
)

// TransitionResult reports what a status observation did.
type TransitionResult struct {
	Outcome    TransitionOutcome
	Order      *domain.Order
	SyncErrors []error
}

// transitionDocs carries documents fetched during side effects so the
// downstream sync does not fetch them a second time.
type transitionDocs struct {
	invoice  *domain.Invoice
	tracking *domain.Tracking
}

// Reconciler converges the local order store, the tenant sub-accounts
// and the ERP toward the status reported by the Hub. Observations arrive
// from webhooks and from polling; both funnel through ObserveStatus.
type Reconciler struct {
	orders   ports.OrderRepository
	products ports.ProductRepository
	systems  ports.SystemIntegrationRepository
	hub      ports.HubGateway
	erp      ports.ERPGateway
	bus      ports.EventBus
	metrics  *metrics.Set
	logger   zerolog.Logger
	now      func() time.Time
}

// NewReconciler creates the order reconciliation engine.
func NewReconciler(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	systems ports.SystemIntegrationRepository,
	hub ports.HubGateway,
	erp ports.ERPGateway,
	bus ports.EventBus,
	metricSet *metrics.Set,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		orders:   orders,
		products: products,
		systems:  systems,
		hub:      hub,
		erp:      erp,
		bus:      bus,
		metrics:  metricSet,
		logger:   logger,
		now:      time.Now,
	}
}

// ObserveStatus processes one status observation for an order. Unknown
// orders are recovered from the Hub and stored. Duplicate observations
// and lost races are no-ops: at most one observer runs the side effects
// of any given transition.
func (r *Reconciler) ObserveStatus(ctx context.Context, referenceID string, status domain.OrderStatus, source ObservationSource) (*TransitionResult, error) {
	if referenceID == "" {
		return nil, fmt.Errorf("reference id is required")
	}
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}

	order, err := r.orders.GetByReferenceID(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", referenceID, err)
	}

	if order == nil {
		fetched, err := r.hub.FetchOrder(ctx, referenceID)
		if err != nil {
			return nil, fmt.Errorf("recover order %s: %w", referenceID, err)
		}
		if fetched == nil {
			return nil, fmt.Errorf("order %s: %w", referenceID, domain.ErrNotFound)
		}
		fetched.Status = status
		return r.ingest(ctx, fetched, source)
	}

	if order.Status == status {
		r.metrics.TransitionsNoOp.WithLabelValues(string(source)).Inc()
		r.logger.Debug().
			Str("reference_id", referenceID).
			Str("status", string(status)).
			Str("source", string(source)).
			Msg("Duplicate status observation dropped")
		return &TransitionResult{Outcome: OutcomeNoOp, Order: order}, nil
	}

	meta := map[string]time.Time{}
	stamp := r.now()
	if key, ok := domain.MetaTimestampKey(status); ok {
		meta[key] = stamp
	}

	applied, err := r.orders.ConditionalUpdateStatus(ctx, referenceID, order.Status, status, meta)
	if err != nil {
		return nil, fmt.Errorf("transition order %s: %w", referenceID, err)
	}
	if !applied {
		// a concurrent observer moved the order first; it owns the
		// side effects of whatever transition it applied
		r.metrics.TransitionsNoOp.WithLabelValues(string(source)).Inc()
		r.logger.Info().
			Str("reference_id", referenceID).
			Str("status", string(status)).
			Str("source", string(source)).
			Msg("Lost status transition race")
		return &TransitionResult{Outcome: OutcomeNoOp, Order: order}, nil
	}

	order.Status = status
	order.StampStatus(status, stamp)
	order.UpdatedAt = stamp

	r.metrics.TransitionsApplied.WithLabelValues(string(status), string(source)).Inc()
	r.logger.Info().
		Str("reference_id", referenceID).
		Str("status", string(status)).
		Str("source", string(source)).
		Msg("Order status transition applied")

	return r.finishTransition(ctx, order, source), nil
}

// IngestOrder processes one order fetched in bulk from the Hub. Known
// orders reduce to a status observation; unknown orders are stored as
// observed.
func (r *Reconciler) IngestOrder(ctx context.Context, fetched *domain.Order, source ObservationSource) (*TransitionResult, error) {
	if fetched == nil || fetched.ReferenceID == "" {
		return nil, fmt.Errorf("order reference id is required")
	}

	existing, err := r.orders.GetByReferenceID(ctx, fetched.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", fetched.ReferenceID, err)
	}
	if existing != nil {
		if existing.Status == fetched.Status {
			r.metrics.TransitionsNoOp.WithLabelValues(string(source)).Inc()
			return &TransitionResult{Outcome: OutcomeNoOp, Order: existing}, nil
		}
		return r.ObserveStatus(ctx, fetched.ReferenceID, fetched.Status, source)
	}

	return r.ingest(ctx, fetched, source)
}

// ingest stores a first-seen order under the status it arrived with and
// runs the side effects of that status. The shop is resolved before the
// insert so the order is queryable per seller from the start. Two
// observers can both see the order as unknown; the unique reference id
// makes the second insert fail, and that loser reduces to a plain status
// observation so order.new fires exactly once.
func (r *Reconciler) ingest(ctx context.Context, order *domain.Order, source ObservationSource) (*TransitionResult, error) {
	order.ShopID = r.ResolveShopID(ctx, order.Items)
	order.StampStatus(order.Status, r.now())

	saved, err := r.orders.Insert(ctx, order)
	if errors.Is(err, domain.ErrDuplicate) {
		r.logger.Info().
			Str("reference_id", order.ReferenceID).
			Str("source", string(source)).
			Msg("Lost first-observation race")
		return r.ObserveStatus(ctx, order.ReferenceID, order.Status, source)
	}
	if err != nil {
		return nil, fmt.Errorf("store order %s: %w", order.ReferenceID, err)
	}

	r.metrics.TransitionsApplied.WithLabelValues(string(saved.Status), string(source)).Inc()
	r.logger.Info().
		Str("reference_id", saved.ReferenceID).
		Str("shop_id", saved.ShopID).
		Str("status", string(saved.Status)).
		Str("source", string(source)).
		Msg("New order ingested")

	r.bus.Publish(ctx, domain.EventOrderNew, domain.OrderNewEvent{Order: saved})

	return r.finishTransition(ctx, saved, source), nil
}

func (r *Reconciler) finishTransition(ctx context.Context, order *domain.Order, source ObservationSource) *TransitionResult {
	result := &TransitionResult{Outcome: OutcomeApplied, Order: order}

	docs := r.emitSideEffects(ctx, order, source, result)
	r.syncLinkedSystems(ctx, order, docs, result)

	if len(result.SyncErrors) > 0 {
		result.Outcome = OutcomePartial
	}
	return result
}

// emitSideEffects publishes the events owed for the order's new status.
// order.updated always fires; status-specific events follow. Documents
// fetched along the way are returned for reuse by the downstream sync.
func (r *Reconciler) emitSideEffects(ctx context.Context, order *domain.Order, source ObservationSource, result *TransitionResult) transitionDocs {
	var docs transitionDocs

	r.bus.Publish(ctx, domain.EventOrderUpdated, domain.OrderUpdatedEvent{
		Order:  order,
		Status: order.Status,
		Source: string(source),
	})

	switch order.Status {
	case domain.StatusApproved:
		r.bus.Publish(ctx, domain.EventOrderApproved, domain.OrderApprovedEvent{Order: order})

	case domain.StatusInvoiced:
		invoice, err := r.hub.FetchInvoice(ctx, order.ReferenceID)
		if err != nil {
			r.recordSyncFailure(result, "hub", fmt.Errorf("fetch invoice %s: %w", order.ReferenceID, err))
		}
		docs.invoice = invoice
		r.commitStock(ctx, order)
		r.bus.Publish(ctx, domain.EventOrderInvoiced, domain.OrderInvoicedEvent{Order: order, Invoice: invoice})

	case domain.StatusShipped:
		tracking, err := r.hub.FetchTracking(ctx, order.ReferenceID)
		if err != nil {
			r.recordSyncFailure(result, "hub", fmt.Errorf("fetch tracking %s: %w", order.ReferenceID, err))
		}
		docs.tracking = tracking
		r.bus.Publish(ctx, domain.EventOrderShipped, domain.OrderShippedEvent{Order: order, Tracking: tracking})

	case domain.StatusDelivered:
		r.bus.Publish(ctx, domain.EventOrderDelivered, domain.OrderDeliveredEvent{
			Order:     order,
			ERPStatus: domain.StatusCompleted,
		})
	}

	return docs
}

// commitStock decrements variation stock for every line item. Stock is
// committed when the fiscal document is issued, not on approval, so a
// canceled-before-invoicing order never touches inventory. Negative
// results are stored as-is and flagged for investigation.
func (r *Reconciler) commitStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		variation, err := r.products.GetVariation(ctx, item.SKU)
		if err != nil {
			r.logger.Error().Err(err).
				Str("reference_id", order.ReferenceID).
				Str("sku", item.SKU).
				Msg("Stock commit lookup failed")
			continue
		}
		if variation == nil {
			r.logger.Warn().
				Str("reference_id", order.ReferenceID).
				Str("sku", item.SKU).
				Msg("Stock commit skipped, unknown variation")
			continue
		}

		updated, err := r.products.UpsertVariationStock(ctx, variation.ID, variation.Stock-item.Quantity)
		if err != nil {
			r.logger.Error().Err(err).
				Str("reference_id", order.ReferenceID).
				Str("variation_id", variation.ID).
				Msg("Stock commit failed")
			continue
		}
		if updated != nil && updated.Stock < 0 {
			r.logger.Warn().
				Str("variation_id", updated.ID).
				Int("stock", updated.Stock).
				Msg("Variation stock went negative")
		}

		if updated != nil {
			r.bus.Publish(ctx, domain.EventStockUpdated, domain.StockEvent{
				VariationID: updated.ID,
				Available:   updated.Stock,
				Origin:      domain.StockOriginLocal,
			})
		}
	}
}

// ResolveShopID resolves the owning seller of an order through its first
// line item: the item SKU names a variation, the variation names a
// product, the product carries the shop. Orders whose seller cannot be
// resolved land under the limbo shop for operator triage instead of
// being dropped.
func (r *Reconciler) ResolveShopID(ctx context.Context, items []domain.OrderItem) string {
	if len(items) == 0 {
		return domain.LimboShopID
	}

	variation, err := r.products.GetVariation(ctx, items[0].SKU)
	if err != nil || variation == nil {
		return domain.LimboShopID
	}

	product, err := r.products.GetByID(ctx, variation.ProductID)
	if err != nil || product == nil || product.ShopID == "" {
		return domain.LimboShopID
	}

	return product.ShopID
}

// syncLinkedSystems pushes the transition to whichever external system
// owns the order's fulfillment. Tenant and ERP linkage are mutually
// exclusive; should both be present the tenant wins and the conflict is
// logged.
func (r *Reconciler) syncLinkedSystems(ctx context.Context, order *domain.Order, docs transitionDocs, result *TransitionResult) {
	if order.Tenant != nil {
		if order.ERPOrderID != "" {
			r.logger.Warn().
				Str("reference_id", order.ReferenceID).
				Msg("Order linked to both tenant and ERP, syncing tenant only")
		}
		r.syncTenant(ctx, order, docs, result)
		return
	}

	if order.ERPOrderID != "" {
		r.syncERP(ctx, order, result)
	}
}

// syncTenant forwards the transition to the tenant-side copy of the
// order. Document pushes are gated on the tenant-side status so a
// redelivered transition cannot post the same invoice or tracking twice.
func (r *Reconciler) syncTenant(ctx context.Context, order *domain.Order, docs transitionDocs, result *TransitionResult) {
	link := order.Tenant

	tenantOrder, err := r.hub.FetchTenantOrder(ctx, link.TenantID, link.TenantOrderID)
	if err != nil {
		r.recordSyncFailure(result, "tenant", fmt.Errorf("fetch tenant order %s: %w", link.TenantOrderID, err))
		return
	}
	if tenantOrder == nil {
		r.recordSyncFailure(result, "tenant", fmt.Errorf("tenant order %s: %w", link.TenantOrderID, domain.ErrNotFound))
		return
	}

	switch order.Status {
	case domain.StatusInvoiced:
		if tenantOrder.Status != domain.StatusApproved {
			r.logger.Debug().
				Str("reference_id", order.ReferenceID).
				Str("tenant_status", string(tenantOrder.Status)).
				Msg("Tenant invoice push skipped")
			return
		}
		invoice := docs.invoice
		if invoice == nil {
			invoice, err = r.hub.FetchInvoice(ctx, order.ReferenceID)
			if err != nil || invoice == nil {
				r.recordSyncFailure(result, "tenant", fmt.Errorf("invoice unavailable for %s", order.ReferenceID))
				return
			}
		}
		if err := r.hub.PostInvoice(ctx, link.TenantID, link.TenantOrderID, invoice); err != nil {
			r.recordSyncFailure(result, "tenant", fmt.Errorf("push invoice %s: %w", link.TenantOrderID, err))
		}

	case domain.StatusShipped:
		if tenantOrder.Status != domain.StatusInvoiced {
			r.logger.Debug().
				Str("reference_id", order.ReferenceID).
				Str("tenant_status", string(tenantOrder.Status)).
				Msg("Tenant tracking push skipped")
			return
		}
		tracking := docs.tracking
		if tracking == nil {
			tracking, err = r.hub.FetchTracking(ctx, order.ReferenceID)
			if err != nil || tracking == nil {
				r.recordSyncFailure(result, "tenant", fmt.Errorf("tracking unavailable for %s", order.ReferenceID))
				return
			}
		}
		if err := r.hub.PostTracking(ctx, link.TenantID, link.TenantOrderID, tracking); err != nil {
			r.recordSyncFailure(result, "tenant", fmt.Errorf("push tracking %s: %w", link.TenantOrderID, err))
		}

	default:
		if tenantOrder.Status == order.Status {
			return
		}
		if err := r.hub.PutOrderStatus(ctx, link.TenantID, link.TenantOrderID, order.Status); err != nil {
			r.recordSyncFailure(result, "tenant", fmt.Errorf("push status %s: %w", link.TenantOrderID, err))
		}
	}
}

// syncERP mirrors the transition to the downstream ERP when the order
// was exported there. A delivered order is reported as Completed, which
// is the ERP's name for the same terminal state.
func (r *Reconciler) syncERP(ctx context.Context, order *domain.Order, result *TransitionResult) {
	target := order.Status
	if target == domain.StatusDelivered {
		target = domain.StatusCompleted
	}
	if order.ERPStatus == target {
		return
	}

	integration, err := r.systems.GetByShop(ctx, order.ShopID)
	if err != nil {
		r.recordSyncFailure(result, "erp", fmt.Errorf("load integration for shop %s: %w", order.ShopID, err))
		return
	}
	if integration == nil || !integration.Active {
		r.logger.Debug().
			Str("reference_id", order.ReferenceID).
			Str("shop_id", order.ShopID).
			Msg("ERP status push skipped, no active integration")
		return
	}

	if err := r.erp.PushStatus(ctx, integration.Token, order.ERPOrderID, target); err != nil {
		r.recordSyncFailure(result, "erp", fmt.Errorf("push erp status %s: %w", order.ERPOrderID, err))
		return
	}

	if err := r.orders.SetERPStatus(ctx, order.ReferenceID, target); err != nil {
		r.recordSyncFailure(result, "erp", fmt.Errorf("record erp status %s: %w", order.ReferenceID, err))
		return
	}
	order.ERPStatus = target
}

func (r *Reconciler) recordSyncFailure(result *TransitionResult, target string, err error) {
	r.metrics.SyncFailures.WithLabelValues(target).Inc()
	r.logger.Error().Err(err).Str("target", target).Msg("Downstream sync failed")
	result.SyncErrors = append(result.SyncErrors, err)
}
