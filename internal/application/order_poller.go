package application

import (
	"context"
	"fmt"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OrderPoller sweeps the Hub for orders updated since the last recorded
// checkpoint. Polling backstops the webhook path: an observation missed
// there is picked up on the next window.
type OrderPoller struct {
	checkpoints ports.CheckpointRepository
	hub         ports.HubGateway
	reconciler  *Reconciler
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderPoller creates the checkpointed order poller.
func NewOrderPoller(checkpoints ports.CheckpointRepository, hub ports.HubGateway, reconciler *Reconciler, logger zerolog.Logger) *OrderPoller {
	return &OrderPoller{
		checkpoints: checkpoints,
		hub:         hub,
		reconciler:  reconciler,
		logger:      logger,
		now:         time.Now,
	}
}

// PollOnce runs one polling window. The first run ever backfills the
// whole order book; later runs fetch only what changed since the last
// checkpoint. The checkpoint advances only after a successful fetch, so
// a failed window is retried whole on the next tick.
func (p *OrderPoller) PollOnce(ctx context.Context) error {
	latest, err := p.checkpoints.Latest(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	windowTo := p.now()
	var windowFrom time.Time
	var orders []*domain.Order

	if latest == nil {
		orders, err = p.hub.FetchAllOrders(ctx)
	} else {
		windowFrom = latest.WindowTo
		orders, err = p.hub.FetchOrdersByWindow(ctx, windowFrom, windowTo)
	}
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}

	ingested := 0
	for _, order := range orders {
		result, err := p.reconciler.IngestOrder(ctx, order, SourcePoll)
		if err != nil {
			p.logger.Error().Err(err).
				Str("reference_id", order.ReferenceID).
				Msg("Order ingest failed")
			continue
		}
		if result.Outcome != OutcomeNoOp {
			ingested++
		}
	}

	checkpoint := &domain.OrderCheckpoint{
		LastUpdate: windowTo,
		WindowFrom: windowFrom,
		WindowTo:   windowTo,
		CreatedAt:  windowTo,
	}
	if err := p.checkpoints.Append(ctx, checkpoint); err != nil {
		return fmt.Errorf("append checkpoint: %w", err)
	}

	p.logger.Info().
		Int("fetched", len(orders)).
		Int("changed", ingested).
		Time("window_to", windowTo).
		Msg("Order poll completed")

	return nil
}
