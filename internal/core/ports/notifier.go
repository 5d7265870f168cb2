package ports

import (
	"context"

	"github.com/storewatch/storewatch/internal/core/domain"
)

// Notifier delivers an aggregated sales summary to the configured push
// channel. Delivery failure is reported to the caller but never escalated
// beyond logging and a boolean success flag at the control surface.
type Notifier interface {
	PushSummary(ctx context.Context, s domain.SalesSummary) error
}
