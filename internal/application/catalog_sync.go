package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/infrastructure/metrics"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// FilterUncategorized selects the Hub catalog entries that still await
// categorization on the tenant side; the periodic sync imports those.
const FilterUncategorized = "2"

// catalogPageSize is the fixed page size the Hub serves catalog listings in.
const catalogPageSize = 10

// CatalogSyncer imports tenant catalogs from the Hub into the local
// product store and keeps stock aligned afterwards.
type CatalogSyncer struct {
	products ports.ProductRepository
	tenants  ports.TenantRepository
	hub      ports.HubGateway
	bus      ports.EventBus
	metrics  *metrics.Set
	logger   zerolog.Logger
}

// NewCatalogSyncer creates the catalog sync engine.
func NewCatalogSyncer(
	products ports.ProductRepository,
	tenants ports.TenantRepository,
	hub ports.HubGateway,
	bus ports.EventBus,
	metricSet *metrics.Set,
	logger zerolog.Logger,
) *CatalogSyncer {
	return &CatalogSyncer{
		products: products,
		tenants:  tenants,
		hub:      hub,
		bus:      bus,
		metrics:  metricSet,
		logger:   logger,
	}
}

// catalogGroup collects the catalog items sharing one parent SKU; they
// become the variations of a single product.
type catalogGroup struct {
	parentSKU string
	items     []domain.CatalogItem
}

// ImportCatalogPage imports one page of a tenant's catalog entries
// matching statusFilter. The returned offset is where the next call
// should resume: it advances only when the Hub served a full page, and
// resets to zero otherwise so a shrinking listing is re-walked from the
// start. The caller owns the offset between calls.
func (s *CatalogSyncer) ImportCatalogPage(ctx context.Context, tenant *domain.Tenant, statusFilter string, offset int) (int, error) {
	items, err := s.hub.FetchCatalogPage(ctx, tenant.ID, statusFilter, offset)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog page for tenant %s: %w", tenant.ID, err)
	}

	var mappings []domain.SKUMapping
	for _, group := range groupByParent(items) {
		pairs, err := s.importGroup(ctx, tenant, group)
		if err != nil {
			s.metrics.CatalogItems.WithLabelValues("failed").Add(float64(len(group.items)))
			s.logger.Error().Err(err).
				Str("tenant_id", tenant.ID).
				Str("parent_sku", group.parentSKU).
				Msg("Catalog group import failed")
			continue
		}
		mappings = append(mappings, pairs...)
	}

	// announce locally assigned ids so future stock and price webhooks
	// resolve to our variations
	if len(mappings) > 0 {
		if err := s.hub.MapSKUs(ctx, tenant.ID, mappings); err != nil {
			s.metrics.SyncFailures.WithLabelValues("hub").Inc()
			s.logger.Error().Err(err).
				Str("tenant_id", tenant.ID).
				Int("pairs", len(mappings)).
				Msg("SKU mapping push failed")
		}
	}

	if len(items) == catalogPageSize {
		return offset + catalogPageSize, nil
	}
	return 0, nil
}

// SyncAllCatalogs runs one import page for every tenant. offsets carries
// each tenant's resume position between ticks; the updated map is
// returned to the caller.
func (s *CatalogSyncer) SyncAllCatalogs(ctx context.Context, offsets map[string]int) (map[string]int, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return offsets, fmt.Errorf("list tenants: %w", err)
	}

	next := make(map[string]int, len(tenants))
	for _, tenant := range tenants {
		nextOffset, err := s.ImportCatalogPage(ctx, tenant, FilterUncategorized, offsets[tenant.ID])
		if err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tenant.ID).Msg("Catalog import tick failed")
			next[tenant.ID] = offsets[tenant.ID]
			continue
		}
		next[tenant.ID] = nextOffset
	}

	return next, nil
}

// SyncAllStock pulls the Hub's current stock for every mapped variation
// of every tenant shop and applies differences locally.
func (s *CatalogSyncer) SyncAllStock(ctx context.Context) error {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	for _, tenant := range tenants {
		products, err := s.products.FindByShop(ctx, tenant.ShopID)
		if err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tenant.ID).Msg("Stock sync listing failed")
			continue
		}

		for _, product := range products {
			for _, variation := range product.Variations {
				if variation.MappingID == "" {
					continue
				}
				s.syncVariationStock(ctx, tenant, variation)
			}
		}
	}

	return nil
}

func (s *CatalogSyncer) syncVariationStock(ctx context.Context, tenant *domain.Tenant, variation domain.Variation) {
	available, err := s.hub.FetchStock(ctx, tenant.ID, variation.MappingID)
	if err != nil {
		s.metrics.SyncFailures.WithLabelValues("hub").Inc()
		s.logger.Error().Err(err).
			Str("variation_id", variation.ID).
			Msg("Stock fetch failed")
		return
	}
	if available == variation.Stock {
		return
	}

	if _, err := s.products.UpsertVariationStock(ctx, variation.ID, available); err != nil {
		s.logger.Error().Err(err).
			Str("variation_id", variation.ID).
			Msg("Stock apply failed")
		return
	}

	s.bus.Publish(ctx, domain.EventStockUpdated, domain.StockEvent{
		VariationID: variation.ID,
		Available:   available,
		Origin:      domain.StockOriginHub,
		TenantID:    tenant.ID,
	})
}

// importGroup creates or diffs the product behind one parent SKU and
// returns the SKU mappings owed for items that still lack a destination.
func (s *CatalogSyncer) importGroup(ctx context.Context, tenant *domain.Tenant, group catalogGroup) ([]domain.SKUMapping, error) {
	existing, err := s.products.GetBySKU(ctx, tenant.ShopID, group.parentSKU)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.createProduct(ctx, tenant, group)
	}
	return s.updateProduct(ctx, tenant, existing, group)
}

func (s *CatalogSyncer) createProduct(ctx context.Context, tenant *domain.Tenant, group catalogGroup) ([]domain.SKUMapping, error) {
	first := group.items[0]

	variations := make([]domain.Variation, 0, len(group.items))
	for _, item := range group.items {
		variations = append(variations, variationFromItem(item))
	}

	product := &domain.Product{
		ShopID:          tenant.ShopID,
		SKU:             group.parentSKU,
		Name:            first.Name,
		Description:     first.Description,
		Brand:           first.Brand,
		EAN:             first.EAN,
		Category:        categoryFor(first.CategoryName),
		Subcategory:     parseCategoryCode(first.CategoryCode),
		Images:          first.Images,
		Price:           first.PriceBase,
		PriceDiscounted: first.PriceSale,
		IsActive:        true,
		Variations:      variations,
	}
	product.Revalidate()

	saved, err := s.products.Insert(ctx, product, variations)
	if err != nil {
		return nil, fmt.Errorf("insert product %s: %w", group.parentSKU, err)
	}

	s.metrics.CatalogItems.WithLabelValues("imported").Add(float64(len(group.items)))
	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("parent_sku", group.parentSKU).
		Int("variations", len(saved.Variations)).
		Msg("Catalog product imported")

	mappings := make([]domain.SKUMapping, 0, len(group.items))
	for i, item := range group.items {
		if item.DestinationSKU != "" {
			continue
		}
		mappings = append(mappings, domain.SKUMapping{
			SourceSKU:      item.SKU,
			DestinationSKU: saved.Variations[i].ID,
		})
	}
	return mappings, nil
}

func (s *CatalogSyncer) updateProduct(ctx context.Context, tenant *domain.Tenant, product *domain.Product, group catalogGroup) ([]domain.SKUMapping, error) {
	first := group.items[0]
	fields := map[string]any{}
	priceChanged := false

	if product.Description != first.Description {
		fields["description"] = first.Description
		product.Description = first.Description
	}
	if product.Price != first.PriceBase || product.PriceDiscounted != first.PriceSale {
		fields["price"] = first.PriceBase
		fields["price_discounted"] = first.PriceSale
		product.Price = first.PriceBase
		product.PriceDiscounted = first.PriceSale
		priceChanged = true
	}
	if code := parseCategoryCode(first.CategoryCode); code != 0 && product.Subcategory != code {
		fields["subcategory"] = code
		product.Subcategory = code
	}

	if len(fields) > 0 {
		product.Revalidate()
		fields["validation"] = product.Validation.Errors
		if err := s.products.UpdateFields(ctx, product.ID, fields); err != nil {
			return nil, fmt.Errorf("update product %s: %w", product.SKU, err)
		}
		s.bus.Publish(ctx, domain.EventProductUpdated, domain.ProductEvent{
			Product:  product,
			TenantID: tenant.ID,
		})
		s.metrics.CatalogItems.WithLabelValues("updated").Add(float64(len(group.items)))
	} else {
		s.metrics.CatalogItems.WithLabelValues("unchanged").Add(float64(len(group.items)))
	}

	var mappings []domain.SKUMapping
	for _, item := range group.items {
		variation := variationByMapping(product.Variations, item.SKU)
		if variation == nil {
			// the Hub lists a variation we never imported; it will keep
			// missing stock and price sync until the product is re-imported
			s.logger.Warn().
				Str("tenant_id", tenant.ID).
				Str("parent_sku", group.parentSKU).
				Str("source_sku", item.SKU).
				Msg("Catalog item matches no local variation")
			continue
		}

		if item.Stock != variation.Stock {
			if _, err := s.products.UpsertVariationStock(ctx, variation.ID, item.Stock); err != nil {
				s.logger.Error().Err(err).
					Str("variation_id", variation.ID).
					Msg("Stock apply failed")
			} else {
				s.bus.Publish(ctx, domain.EventStockUpdated, domain.StockEvent{
					VariationID: variation.ID,
					Available:   item.Stock,
					Origin:      domain.StockOriginHub,
					TenantID:    tenant.ID,
				})
			}
		}

		if priceChanged {
			s.bus.Publish(ctx, domain.EventPriceUpdated, domain.PriceEvent{
				VariationID: variation.ID,
				Base:        first.PriceBase,
				Sale:        first.PriceSale,
				TenantID:    tenant.ID,
			})
		}

		if item.DestinationSKU == "" {
			mappings = append(mappings, domain.SKUMapping{
				SourceSKU:      item.SKU,
				DestinationSKU: variation.ID,
			})
		}
	}
	return mappings, nil
}

// groupByParent buckets a catalog page by parent SKU, preserving the page
// order. Items without a parent stand alone under their own SKU.
func groupByParent(items []domain.CatalogItem) []catalogGroup {
	index := map[string]int{}
	var groups []catalogGroup

	for _, item := range items {
		parent := item.ParentSKU
		if parent == "" {
			parent = item.SKU
		}

		if at, seen := index[parent]; seen {
			groups[at].items = append(groups[at].items, item)
			continue
		}
		index[parent] = len(groups)
		groups = append(groups, catalogGroup{parentSKU: parent, items: []domain.CatalogItem{item}})
	}

	return groups
}

// variationFromItem derives a variation from a catalog item. Attribute
// names are matched by case-insensitive substring because tenants label
// them freely, in Portuguese or English.
func variationFromItem(item domain.CatalogItem) domain.Variation {
	variation := domain.Variation{
		Stock:     item.Stock,
		MappingID: item.SKU,
	}

	for _, attr := range item.Attributes {
		name := strings.ToLower(attr.Name)
		switch {
		case strings.Contains(name, "tamanho") || strings.Contains(name, "size"):
			variation.Size = attr.Value
		case strings.Contains(name, "cor") || strings.Contains(name, "color"):
			variation.Color = attr.Value
		case strings.Contains(name, "sabor") || strings.Contains(name, "flavor"):
			variation.Flavor = attr.Value
		case strings.Contains(name, "voltagem") || strings.Contains(name, "voltage"):
			variation.Voltage = attr.Value
		}
	}

	return variation
}

func variationByMapping(variations []domain.Variation, sourceSKU string) *domain.Variation {
	for i := range variations {
		if variations[i].MappingID == sourceSKU {
			return &variations[i]
		}
	}
	return nil
}

func categoryFor(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "roupa") || strings.Contains(lower, "apparel") || strings.Contains(lower, "vestuario"):
		return domain.CategoryApparel
	case strings.Contains(lower, "alimento") || strings.Contains(lower, "food"):
		return domain.CategoryFood
	case strings.Contains(lower, "eletro") || strings.Contains(lower, "appliance"):
		return domain.CategoryAppliances
	}
	return 0
}

func parseCategoryCode(code string) int {
	parsed, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return parsed
}
