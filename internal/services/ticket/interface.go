package ticket

import (
	"context"

	"github.com/nclabs/communitybot/internal/models"
)

// Service manages the support ticket lifecycle
type Service interface {
	// Create opens a ticket for a member. The member row is upserted
	// first so the author FK always resolves; any store failure is
	// returned to the caller.
	Create(ctx context.Context, input *CreateInput) (*models.Ticket, error)

	// Resolve marks the ticket linked to a channel as resolved
	Resolve(ctx context.Context, input *ResolveInput) (*models.Ticket, error)

	// GetByChannel looks up the ticket linked to a channel
	GetByChannel(ctx context.Context, input *GetByChannelInput) (*models.Ticket, error)

	// LogEvent appends an entry to a ticket's history
	LogEvent(ctx context.Context, input *LogEventInput) error
}
