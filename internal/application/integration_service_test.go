package application

import (
	"context"
	"errors"
	"testing"

	"markethub-integration-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveActivatesAfterSuccessfulProbe(t *testing.T) {
	var stored *domain.SystemIntegration
	systems := &systemsStub{
		upsert: func(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error) {
			stored = integration
			return integration, nil
		},
	}
	probed := false
	erp := &erpStub{
		probe: func(ctx context.Context, token string) error {
			probed = true
			assert.Equal(t, "erp-token", token)
			return nil
		},
	}
	service := NewIntegrationService(systems, erp, zerolog.Nop())

	saved, err := service.Save(context.Background(), &domain.SystemIntegration{
		ShopID:     "shop-1",
		SystemName: domain.ERPSystemName,
		Token:      "erp-token",
	})

	require.NoError(t, err)
	assert.True(t, probed)
	assert.True(t, saved.Active)
	require.NotNil(t, stored)
	assert.True(t, stored.Active)
}

func TestSaveRefusesWhenProbeFails(t *testing.T) {
	systems := &systemsStub{
		upsert: func(ctx context.Context, integration *domain.SystemIntegration) (*domain.SystemIntegration, error) {
			t.Fatal("a failed probe must not store the integration")
			return nil, nil
		},
	}
	erp := &erpStub{
		probe: func(ctx context.Context, token string) error {
			return errors.New("unauthorized")
		},
	}
	service := NewIntegrationService(systems, erp, zerolog.Nop())

	_, err := service.Save(context.Background(), &domain.SystemIntegration{
		ShopID:     "shop-1",
		SystemName: domain.ERPSystemName,
		Token:      "bad-token",
	})

	assert.Error(t, err)
}

func TestSaveValidatesInput(t *testing.T) {
	service := NewIntegrationService(&systemsStub{}, &erpStub{}, zerolog.Nop())

	cases := []struct {
		name        string
		integration domain.SystemIntegration
	}{
		{"missing shop", domain.SystemIntegration{SystemName: domain.ERPSystemName, Token: "t"}},
		{"missing token", domain.SystemIntegration{ShopID: "shop-1", SystemName: domain.ERPSystemName}},
		{"unknown system", domain.SystemIntegration{ShopID: "shop-1", SystemName: "other-erp", Token: "t"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			integration := tc.integration
			_, err := service.Save(context.Background(), &integration)
			assert.Error(t, err)
		})
	}
}
