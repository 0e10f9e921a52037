package listeners

import (
	"context"
	"fmt"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ProductListeners mirrors local catalog changes out to the Hub.
type ProductListeners struct {
	hub    ports.HubGateway
	logger zerolog.Logger
}

// NewProductListeners creates the product event handlers.
func NewProductListeners(hub ports.HubGateway, logger zerolog.Logger) *ProductListeners {
	return &ProductListeners{hub: hub, logger: logger}
}

// OnProductCreated publishes a newly created product to the Hub catalog.
func (l *ProductListeners) OnProductCreated(ctx context.Context, payload any) error {
	event, ok := payload.(domain.ProductEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}

	if err := l.hub.PostProducts(ctx, event.TenantID, event.Product); err != nil {
		return fmt.Errorf("publish product %s: %w", event.Product.SKU, err)
	}

	l.logger.Info().
		Str("sku", event.Product.SKU).
		Str("shop_id", event.Product.ShopID).
		Msg("Product published to hub")
	return nil
}

// OnProductDeleted withdraws a removed product from the Hub catalog.
func (l *ProductListeners) OnProductDeleted(ctx context.Context, payload any) error {
	event, ok := payload.(domain.ProductEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}

	if err := l.hub.DeleteProduct(ctx, event.TenantID, event.Product.SKU); err != nil {
		return fmt.Errorf("withdraw product %s: %w", event.Product.SKU, err)
	}

	l.logger.Info().
		Str("sku", event.Product.SKU).
		Str("shop_id", event.Product.ShopID).
		Msg("Product withdrawn from hub")
	return nil
}

// OnStockUpdated pushes a stock change to the Hub. Changes that came
// from the Hub are not echoed back.
func (l *ProductListeners) OnStockUpdated(ctx context.Context, payload any) error {
	event, ok := payload.(domain.StockEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	if event.Origin == domain.StockOriginHub {
		return nil
	}

	if err := l.hub.PutStock(ctx, event.VariationID, event.Available); err != nil {
		return fmt.Errorf("push stock for %s: %w", event.VariationID, err)
	}
	return nil
}

// OnPriceUpdated pushes a price change to the Hub.
func (l *ProductListeners) OnPriceUpdated(ctx context.Context, payload any) error {
	event, ok := payload.(domain.PriceEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}

	if err := l.hub.PutPrice(ctx, event.VariationID, event.Base, event.Sale); err != nil {
		return fmt.Errorf("push price for %s: %w", event.VariationID, err)
	}
	return nil
}
