package ticket

import (
	"github.com/nclabs/communitybot/internal/models"
)

// CreateInput contains parameters for creating a ticket
type CreateInput struct {
	Ticket *models.Ticket
}

// GetByChannelInput contains parameters for a channel lookup
type GetByChannelInput struct {
	ChannelID int64
}

// UpdateStatusInput contains parameters for a status change
type UpdateStatusInput struct {
	TicketID int64
	Status   models.TicketStatus
}

// AddEventInput contains parameters for appending a ticket event
type AddEventInput struct {
	Event *models.TicketEvent
}
