package application

import (
	"context"
	"fmt"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/metrics"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ERPSyncer applies product and stock changes announced by the
// downstream ERP. The ERP addresses us by its own ecommerce id; every
// entry point resolves that to a shop through the integration record.
type ERPSyncer struct {
	products ports.ProductRepository
	systems  ports.SystemIntegrationRepository
	erp      ports.ERPGateway
	bus      ports.EventBus
	metrics  *metrics.Set
	logger   zerolog.Logger
}

// NewERPSyncer creates the ERP-side sync service.
func NewERPSyncer(
	products ports.ProductRepository,
	systems ports.SystemIntegrationRepository,
	erp ports.ERPGateway,
	bus ports.EventBus,
	metricSet *metrics.Set,
	logger zerolog.Logger,
) *ERPSyncer {
	return &ERPSyncer{
		products: products,
		systems:  systems,
		erp:      erp,
		bus:      bus,
		metrics:  metricSet,
		logger:   logger,
	}
}

// ImportProduct upserts a product announced by the ERP into the shop
// bound to the given ecommerce id. New products fire product.created,
// which is what cross-publishes them to the Hub.
func (s *ERPSyncer) ImportProduct(ctx context.Context, ecommerceID string, product *domain.Product) (*domain.Product, error) {
	integration, err := s.resolveIntegration(ctx, ecommerceID)
	if err != nil {
		return nil, err
	}
	product.ShopID = integration.ShopID

	existing, err := s.products.GetBySKU(ctx, integration.ShopID, product.SKU)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", product.SKU, err)
	}

	if existing == nil {
		product.Revalidate()
		saved, err := s.products.Insert(ctx, product, product.Variations)
		if err != nil {
			return nil, fmt.Errorf("insert product %s: %w", product.SKU, err)
		}

		s.logger.Info().
			Str("shop_id", saved.ShopID).
			Str("sku", saved.SKU).
			Msg("ERP product imported")
		s.bus.Publish(ctx, domain.EventProductCreated, domain.ProductEvent{Product: saved})
		return saved, nil
	}

	fields := map[string]any{}
	if existing.Name != product.Name && product.Name != "" {
		fields["name"] = product.Name
		existing.Name = product.Name
	}
	if existing.Description != product.Description && product.Description != "" {
		fields["description"] = product.Description
		existing.Description = product.Description
	}
	if product.Price > 0 && (existing.Price != product.Price || existing.PriceDiscounted != product.PriceDiscounted) {
		fields["price"] = product.Price
		fields["price_discounted"] = product.PriceDiscounted
		existing.Price = product.Price
		existing.PriceDiscounted = product.PriceDiscounted
	}

	if len(fields) == 0 {
		return existing, nil
	}

	existing.Revalidate()
	fields["validation"] = existing.Validation.Errors
	if err := s.products.UpdateFields(ctx, existing.ID, fields); err != nil {
		return nil, fmt.Errorf("update product %s: %w", existing.SKU, err)
	}

	s.bus.Publish(ctx, domain.EventProductUpdated, domain.ProductEvent{Product: existing})
	return existing, nil
}

// RemoveProduct deletes a product the ERP no longer carries and fires
// product.deleted so the Hub listing is withdrawn as well. Unknown SKUs
// are a no-op; the ERP may announce a removal we never imported.
func (s *ERPSyncer) RemoveProduct(ctx context.Context, ecommerceID, sku string) error {
	integration, err := s.resolveIntegration(ctx, ecommerceID)
	if err != nil {
		return err
	}

	existing, err := s.products.GetBySKU(ctx, integration.ShopID, sku)
	if err != nil {
		return fmt.Errorf("load product %s: %w", sku, err)
	}
	if existing == nil {
		return nil
	}

	if err := s.products.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("delete product %s: %w", sku, err)
	}

	s.logger.Info().
		Str("shop_id", existing.ShopID).
		Str("sku", existing.SKU).
		Msg("ERP product removed")
	s.bus.Publish(ctx, domain.EventProductDeleted, domain.ProductEvent{Product: existing})
	return nil
}

// ApplyStock applies one stock level announced by the ERP to the local
// variation mapped to the ERP's product id.
func (s *ERPSyncer) ApplyStock(ctx context.Context, ecommerceID, mappingID string, available int) error {
	integration, err := s.resolveIntegration(ctx, ecommerceID)
	if err != nil {
		return err
	}

	variation, err := s.findMappedVariation(ctx, integration.ShopID, mappingID)
	if err != nil {
		return err
	}
	if variation == nil {
		return fmt.Errorf("variation mapped to %s: %w", mappingID, domain.ErrNotFound)
	}
	if variation.Stock == available {
		return nil
	}

	if _, err := s.products.UpsertVariationStock(ctx, variation.ID, available); err != nil {
		return fmt.Errorf("apply stock for %s: %w", variation.ID, err)
	}

	s.bus.Publish(ctx, domain.EventStockUpdated, domain.StockEvent{
		VariationID: variation.ID,
		Available:   available,
		Origin:      domain.StockOriginERP,
	})
	return nil
}

// RefreshStock pulls current stock from the ERP for every mapped
// variation of every shop with an active integration.
func (s *ERPSyncer) RefreshStock(ctx context.Context, shopID string) error {
	integration, err := s.systems.GetByShop(ctx, shopID)
	if err != nil {
		return fmt.Errorf("load integration for shop %s: %w", shopID, err)
	}
	if integration == nil || !integration.Active {
		return nil
	}

	products, err := s.products.FindByShop(ctx, shopID)
	if err != nil {
		return fmt.Errorf("list products for shop %s: %w", shopID, err)
	}

	for _, product := range products {
		for _, variation := range product.Variations {
			if variation.MappingID == "" {
				continue
			}

			available, err := s.erp.FetchStock(ctx, integration.Token, variation.MappingID)
			if err != nil {
				s.metrics.SyncFailures.WithLabelValues("erp").Inc()
				s.logger.Error().Err(err).
					Str("variation_id", variation.ID).
					Msg("ERP stock fetch failed")
				continue
			}
			if available == variation.Stock {
				continue
			}

			if _, err := s.products.UpsertVariationStock(ctx, variation.ID, available); err != nil {
				s.logger.Error().Err(err).
					Str("variation_id", variation.ID).
					Msg("ERP stock apply failed")
				continue
			}

			s.bus.Publish(ctx, domain.EventStockUpdated, domain.StockEvent{
				VariationID: variation.ID,
				Available:   available,
				Origin:      domain.StockOriginERP,
			})
		}
	}

	return nil
}

func (s *ERPSyncer) resolveIntegration(ctx context.Context, ecommerceID string) (*domain.SystemIntegration, error) {
	integration, err := s.systems.GetByEcommerceID(ctx, ecommerceID)
	if err != nil {
		return nil, fmt.Errorf("load integration for ecommerce %s: %w", ecommerceID, err)
	}
	if integration == nil || !integration.Active {
		return nil, fmt.Errorf("no active integration for ecommerce %s: %w", ecommerceID, domain.ErrNotFound)
	}
	return integration, nil
}

func (s *ERPSyncer) findMappedVariation(ctx context.Context, shopID, mappingID string) (*domain.Variation, error) {
	products, err := s.products.FindByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("list products for shop %s: %w", shopID, err)
	}

	for _, product := range products {
		for i := range product.Variations {
			if product.Variations[i].MappingID == mappingID {
				return &product.Variations[i], nil
			}
		}
	}
	return nil, nil
}
