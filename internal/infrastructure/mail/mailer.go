package mail

import (
	"context"

	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// LogMailer satisfies the Mailer port by writing the notification to the
// log. Swapped for a real delivery backend per deployment.
type LogMailer struct {
	logger zerolog.Logger
}

var _ ports.Mailer = (*LogMailer)(nil)

// NewLogMailer creates a log-backed mailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOrderApproved(ctx context.Context, shopID, referenceID string) error {
	m.logger.Info().
		Str("shop_id", shopID).
		Str("reference_id", referenceID).
		Msg("Order approved notification")
	return nil
}
