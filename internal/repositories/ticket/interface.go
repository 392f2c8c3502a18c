package ticket

import (
	"context"

	"github.com/nclabs/communitybot/internal/models"
)

// Repository defines the interface for ticket persistence
type Repository interface {
	// Create inserts a new ticket row and returns it with its ID
	Create(ctx context.Context, input *CreateInput) (*models.Ticket, error)

	// GetByChannel looks up a ticket by its linked Discord channel
	GetByChannel(ctx context.Context, input *GetByChannelInput) (*models.Ticket, error)

	// UpdateStatus changes a ticket's lifecycle state
	UpdateStatus(ctx context.Context, input *UpdateStatusInput) (*models.Ticket, error)

	// AddEvent appends an audit entry to a ticket's history
	AddEvent(ctx context.Context, input *AddEventInput) error
}
