package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"markethub-integration-layer/internal/application"
	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/redisx"
	"markethub-integration-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers holds the HTTP entry points of the integration layer: the
// Hub and ERP webhook receivers and the operator-facing configuration
// endpoints.
type Handlers struct {
	reconciler   *application.Reconciler
	catalog      *application.CatalogSyncer
	erpSync      *application.ERPSyncer
	integrations *application.IntegrationService
	tenants      ports.TenantRepository
	guard        *redisx.IdempotencyGuard
	logger       zerolog.Logger
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(
	reconciler *application.Reconciler,
	catalog *application.CatalogSyncer,
	erpSync *application.ERPSyncer,
	integrations *application.IntegrationService,
	tenants ports.TenantRepository,
	guard *redisx.IdempotencyGuard,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		reconciler:   reconciler,
		catalog:      catalog,
		erpSync:      erpSync,
		integrations: integrations,
		tenants:      tenants,
		guard:        guard,
		logger:       logger,
	}
}

// orderNotification is the Hub's order status webhook payload.
type orderNotification struct {
	OrderID string `json:"idOrder"`
	Status  string `json:"status"`
}

// erpProductNotification is the ERP's product webhook payload. Deleted
// marks a product the ERP removed from its own catalog.
type erpProductNotification struct {
	EcommerceID     string  `json:"ecommerce_id"`
	ERPProductID    string  `json:"erp_product_id"`
	SKU             string  `json:"sku"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Brand           string  `json:"brand"`
	Price           float64 `json:"price"`
	PriceDiscounted float64 `json:"price_discounted"`
	Stock           int     `json:"stock"`
	Deleted         bool    `json:"deleted"`
}

// erpStockNotification is the ERP's stock webhook payload.
type erpStockNotification struct {
	EcommerceID  string `json:"ecommerce_id"`
	ERPProductID string `json:"erp_product_id"`
	Stock        int    `json:"stock"`
}

// integrationRequest is the operator request to bind a shop to the ERP.
type integrationRequest struct {
	ShopID      string `json:"shop_id"`
	SystemName  string `json:"system_name"`
	Token       string `json:"token"`
	EcommerceID string `json:"ecommerce_id"`
}

// HandleOrderWebhook processes one Hub order status notification. A
// duplicate delivery is acknowledged with 200 so the Hub stops
// redelivering; only transport-level failures earn a retryable 5xx.
func (h *Handlers) HandleOrderWebhook(w http.ResponseWriter, r *http.Request) {
	var notification orderNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if notification.OrderID == "" || notification.Status == "" {
		http.Error(w, "idOrder and status are required", http.StatusBadRequest)
		return
	}

	status, err := domain.ParseOrderStatus(notification.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	claimKey := notification.OrderID + ":" + notification.Status

	claimed, err := h.guard.Claim(ctx, claimKey)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Idempotency guard unavailable, proceeding")
	}
	if !claimed {
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "duplicate": true})
		return
	}

	result, err := h.reconciler.ObserveStatus(ctx, notification.OrderID, status, application.SourceWebhook)
	if err != nil {
		h.releaseClaim(ctx, claimKey)
		h.logger.Error().Err(err).
			Str("reference_id", notification.OrderID).
			Msg("Order webhook processing failed")
		http.Error(w, "failed to process order status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"received": true,
		"outcome":  string(result.Outcome),
	})
}

// HandleERPProductWebhook upserts or removes a product announced by the
// ERP.
func (h *Handlers) HandleERPProductWebhook(w http.ResponseWriter, r *http.Request) {
	var notification erpProductNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if notification.EcommerceID == "" || notification.SKU == "" {
		http.Error(w, "ecommerce_id and sku are required", http.StatusBadRequest)
		return
	}

	if notification.Deleted {
		if err := h.erpSync.RemoveProduct(r.Context(), notification.EcommerceID, notification.SKU); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			h.logger.Error().Err(err).
				Str("sku", notification.SKU).
				Msg("ERP product removal failed")
			http.Error(w, "failed to remove product", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "deleted": true})
		return
	}

	product := &domain.Product{
		SKU:             notification.SKU,
		Name:            notification.Name,
		Description:     notification.Description,
		Brand:           notification.Brand,
		Price:           notification.Price,
		PriceDiscounted: notification.PriceDiscounted,
		IsActive:        true,
		Variations: []domain.Variation{{
			Stock:     notification.Stock,
			MappingID: notification.ERPProductID,
		}},
	}

	saved, err := h.erpSync.ImportProduct(r.Context(), notification.EcommerceID, product)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).
			Str("sku", notification.SKU).
			Msg("ERP product webhook processing failed")
		http.Error(w, "failed to import product", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true, "product_id": saved.ID})
}

// HandleERPStockWebhook applies a stock level announced by the ERP.
func (h *Handlers) HandleERPStockWebhook(w http.ResponseWriter, r *http.Request) {
	var notification erpStockNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if notification.EcommerceID == "" || notification.ERPProductID == "" {
		http.Error(w, "ecommerce_id and erp_product_id are required", http.StatusBadRequest)
		return
	}

	err := h.erpSync.ApplyStock(r.Context(), notification.EcommerceID, notification.ERPProductID, notification.Stock)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).
			Str("erp_product_id", notification.ERPProductID).
			Msg("ERP stock webhook processing failed")
		http.Error(w, "failed to apply stock", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

// HandleCatalogImport runs one catalog import page for a tenant. The
// caller passes the offset to resume from and receives the next one; the
// filter defaults to the uncategorized listing the periodic sync walks.
func (h *Handlers) HandleCatalogImport(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	if tenantID == "" {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
		return
	}

	statusFilter := r.URL.Query().Get("filter")
	if statusFilter == "" {
		statusFilter = application.FilterUncategorized
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid offset", http.StatusBadRequest)
			return
		}
		offset = parsed
	}

	tenant, err := h.tenantByID(r.Context(), tenantID)
	if err != nil {
		http.Error(w, "failed to resolve tenant", http.StatusInternalServerError)
		return
	}
	if tenant == nil {
		http.Error(w, "unknown tenant", http.StatusNotFound)
		return
	}

	nextOffset, err := h.catalog.ImportCatalogPage(r.Context(), tenant, statusFilter, offset)
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Catalog import failed")
		http.Error(w, "failed to import catalog page", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"next_offset": nextOffset})
}

// HandleSaveIntegration validates and stores a shop's ERP binding.
func (h *Handlers) HandleSaveIntegration(w http.ResponseWriter, r *http.Request) {
	var request integrationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	saved, err := h.integrations.Save(r.Context(), &domain.SystemIntegration{
		ShopID:      request.ShopID,
		SystemName:  request.SystemName,
		Token:       request.Token,
		EcommerceID: request.EcommerceID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCredential) || errors.Is(err, domain.ErrTransport) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// HandleGetIntegration returns a shop's ERP binding.
func (h *Handlers) HandleGetIntegration(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopId")
	if shopID == "" {
		http.Error(w, "shopId is required", http.StatusBadRequest)
		return
	}

	integration, err := h.integrations.GetByShop(r.Context(), shopID)
	if err != nil {
		http.Error(w, "failed to load integration", http.StatusInternalServerError)
		return
	}
	if integration == nil {
		http.Error(w, "no integration for shop", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, integration)
}

// HandleERPStockRefresh pulls current stock from the ERP for every
// mapped variation of a shop. Operator-triggered; the webhook path
// covers the steady state.
func (h *Handlers) HandleERPStockRefresh(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopId")
	if shopID == "" {
		http.Error(w, "shopId is required", http.StatusBadRequest)
		return
	}

	if err := h.erpSync.RefreshStock(r.Context(), shopID); err != nil {
		h.logger.Error().Err(err).Str("shop_id", shopID).Msg("ERP stock refresh failed")
		http.Error(w, "failed to refresh stock", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}

func (h *Handlers) tenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	tenants, err := h.tenants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	for _, tenant := range tenants {
		if tenant.ID == tenantID {
			return tenant, nil
		}
	}
	return nil, nil
}

func (h *Handlers) releaseClaim(ctx context.Context, key string) {
	if err := h.guard.Release(ctx, key); err != nil {
		h.logger.Warn().Err(err).Msg("Idempotency claim release failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
