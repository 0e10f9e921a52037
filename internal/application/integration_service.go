package application

import (
	"context"
	"fmt"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// IntegrationService manages per-shop ERP configurations. A
// configuration only becomes active after a live connectivity probe
// against the ERP confirms the token works.
type IntegrationService struct {
	systems ports.SystemIntegrationRepository
	erp     ports.ERPGateway
	logger  zerolog.Logger
}

// NewIntegrationService creates the integration configuration service.
func NewIntegrationService(systems ports.SystemIntegrationRepository, erp ports.ERPGateway, logger zerolog.Logger) *IntegrationService {
	return &IntegrationService{
		systems: systems,
		erp:     erp,
		logger:  logger,
	}
}

// Save validates, probes and stores a shop's ERP configuration. The
// probe gate means an integration row is never active with a token the
// ERP rejects.
func (s *IntegrationService) Save(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error) {
	if integration.ShopID == "" {
		return nil, fmt.Errorf("shop id is required")
	}
	if integration.Token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if integration.SystemName != domain.ERPSystemName {
		return nil, fmt.Errorf("unsupported system %q", integration.SystemName)
	}

	if err := s.erp.Probe(ctx, integration.Token); err != nil {
		return nil, fmt.Errorf("probe erp for shop %s: %w", integration.ShopID, err)
	}
	integration.Active = true

	saved, err := s.systems.Upsert(ctx, integration)
	if err != nil {
		return nil, fmt.Errorf("store integration for shop %s: %w", integration.ShopID, err)
	}

	s.logger.Info().
		Str("shop_id", saved.ShopID).
		Str("system", saved.SystemName).
		Msg("ERP integration activated")

	return saved, nil
}

// GetByShop retrieves a shop's ERP configuration.
func (s *IntegrationService) GetByShop(ctx context.Context, shopID string) (*domain.SystemIntegration, error) {
	return s.systems.GetByShop(ctx, shopID)
}

// GetByID retrieves an ERP configuration by id.
func (s *IntegrationService) GetByID(ctx context.Context, id string) (*domain.SystemIntegration, error) {
	return s.systems.GetByID(ctx, id)
}
