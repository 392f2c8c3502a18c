package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/nclabs/communitybot/internal/common/clock"
	"github.com/nclabs/communitybot/internal/models"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
	ticketRepo "github.com/nclabs/communitybot/internal/repositories/ticket"
)

// ErrTicketAlreadyClosed is returned when resolving a ticket that has
// already reached a terminal status
var ErrTicketAlreadyClosed = errors.New("ticket is already resolved or closed")

// Config holds configuration for the ticket service
type Config struct {
	TicketRepo ticketRepo.Repository
	MemberRepo memberRepo.Repository
	Clock      clock.Clock
}

// service implements the Service interface
type service struct {
	ticketRepo ticketRepo.Repository
	memberRepo memberRepo.Repository
	clock      clock.Clock
}

// New creates a new ticket service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.TicketRepo == nil {
		return nil, errors.New("ticket repository cannot be nil")
	}
	if cfg.MemberRepo == nil {
		return nil, errors.New("member repository cannot be nil")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	return &service{
		ticketRepo: cfg.TicketRepo,
		memberRepo: cfg.MemberRepo,
		clock:      cfg.Clock,
	}, nil
}

// Create upserts the author's member row, inserts the ticket, and
// appends an opening history entry. The upsert runs first so the author
// FK resolves for members the bot has never seen post.
func (s *service) Create(ctx context.Context, input *CreateInput) (*models.Ticket, error) {
	if input == nil || input.AuthorID == 0 || input.ChannelID == 0 {
		return nil, errors.New("input, author ID and channel ID cannot be empty")
	}

	now := s.clock.Now().UTC()

	if err := s.memberRepo.Upsert(ctx, &memberRepo.UpsertInput{
		DiscordID: input.AuthorID,
		Username:  input.Username,
		SeenAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("failed to upsert ticket author: %w", err)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	created, err := s.ticketRepo.Create(ctx, &ticketRepo.CreateInput{
		Ticket: &models.Ticket{
			AuthorID:  input.AuthorID,
			ChannelID: input.ChannelID,
			Status:    models.TicketOpen,
			Priority:  priority,
			Subject:   input.Subject,
			CreatedAt: now,
			UpdatedAt: now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	note := "Ticket opened"
	if err := s.ticketRepo.AddEvent(ctx, &ticketRepo.AddEventInput{
		Event: &models.TicketEvent{
			TicketID:   created.ID,
			ActorID:    input.AuthorID,
			SystemNote: &note,
			CreatedAt:  now,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to record ticket opening: %w", err)
	}

	return created, nil
}

// Resolve marks the ticket linked to a channel as resolved and appends
// a history entry naming the actor
func (s *service) Resolve(ctx context.Context, input *ResolveInput) (*models.Ticket, error) {
	if input == nil || input.ChannelID == 0 {
		return nil, errors.New("input and channel ID cannot be empty")
	}

	existing, err := s.ticketRepo.GetByChannel(ctx, &ticketRepo.GetByChannelInput{
		ChannelID: input.ChannelID,
	})
	if err != nil {
		return nil, err
	}

	if existing.Status == models.TicketResolved || existing.Status == models.TicketClosed {
		return nil, ErrTicketAlreadyClosed
	}

	updated, err := s.ticketRepo.UpdateStatus(ctx, &ticketRepo.UpdateStatusInput{
		TicketID: existing.ID,
		Status:   models.TicketResolved,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ticket: %w", err)
	}

	note := "Ticket resolved"
	if err := s.ticketRepo.AddEvent(ctx, &ticketRepo.AddEventInput{
		Event: &models.TicketEvent{
			TicketID:   updated.ID,
			ActorID:    input.ActorID,
			SystemNote: &note,
			CreatedAt:  s.clock.Now().UTC(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to record ticket resolution: %w", err)
	}

	return updated, nil
}

// GetByChannel looks up the ticket linked to a channel
func (s *service) GetByChannel(ctx context.Context, input *GetByChannelInput) (*models.Ticket, error) {
	if input == nil || input.ChannelID == 0 {
		return nil, errors.New("input and channel ID cannot be empty")
	}

	return s.ticketRepo.GetByChannel(ctx, &ticketRepo.GetByChannelInput{
		ChannelID: input.ChannelID,
	})
}

// LogEvent appends an entry to a ticket's history
func (s *service) LogEvent(ctx context.Context, input *LogEventInput) error {
	if input == nil || input.TicketID == 0 {
		return errors.New("input and ticket ID cannot be empty")
	}

	return s.ticketRepo.AddEvent(ctx, &ticketRepo.AddEventInput{
		Event: &models.TicketEvent{
			TicketID:       input.TicketID,
			ActorID:        input.ActorID,
			IsInternal:     input.IsInternal,
			MessageContent: input.MessageContent,
			SystemNote:     input.SystemNote,
			CreatedAt:      s.clock.Now().UTC(),
		},
	})
}
