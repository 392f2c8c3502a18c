package ticket

import (
	"github.com/nclabs/communitybot/internal/models"
)

// CreateInput contains parameters for opening a ticket
type CreateInput struct {
	AuthorID  int64
	Username  string
	ChannelID int64
	Subject   string
	Priority  models.TicketPriority
}

// ResolveInput contains parameters for resolving a ticket by channel
type ResolveInput struct {
	ChannelID int64
	ActorID   int64
}

// GetByChannelInput contains parameters for a channel lookup
type GetByChannelInput struct {
	ChannelID int64
}

// LogEventInput contains parameters for appending a history entry
type LogEventInput struct {
	TicketID   int64
	ActorID    int64
	IsInternal bool

	// Exactly one of MessageContent and SystemNote is normally set
	MessageContent *string
	SystemNote     *string
}
