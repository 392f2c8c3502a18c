package models

import (
	"time"
)

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketWaiting    TicketStatus = "waiting_for_user"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// TicketPriority is the urgency level assigned to a ticket.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// Ticket is a support request with a 1:1 link to a private Discord
// channel. The channel holds the live conversation; this row holds the
// metadata and status.
type Ticket struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	AuthorID int64  `gorm:"not null;index"`
	Author   Member `gorm:"foreignKey:AuthorID;references:DiscordID;constraint:OnDelete:RESTRICT"`

	// AssigneeID is nil while the ticket is unassigned
	AssigneeID *int64

	// ChannelID is the snowflake of the private ticket channel, unique
	// so a channel maps to at most one ticket
	ChannelID int64 `gorm:"uniqueIndex;not null"`

	Status   TicketStatus   `gorm:"type:varchar(24);not null;default:open"`
	Priority TicketPriority `gorm:"type:varchar(16);not null;default:medium"`

	Subject string `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TicketEvent is an immutable audit entry in a ticket's history. System
// events populate SystemNote; relayed conversation messages populate
// MessageContent.
type TicketEvent struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	TicketID int64  `gorm:"not null;index"`
	Ticket   Ticket `gorm:"foreignKey:TicketID;constraint:OnDelete:RESTRICT"`

	ActorID int64  `gorm:"not null"`
	Actor   Member `gorm:"foreignKey:ActorID;references:DiscordID;constraint:OnDelete:RESTRICT"`

	// IsInternal marks staff-only notes hidden from the ticket author
	IsInternal bool `gorm:"not null;default:false"`

	MessageContent *string
	SystemNote     *string

	CreatedAt time.Time `gorm:"not null"`
}
