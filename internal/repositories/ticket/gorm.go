package ticket

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nclabs/communitybot/internal/models"
)

// ErrTicketNotFound is returned when a ticket is not found
var ErrTicketNotFound = errors.New("ticket not found")

// Config holds configuration for the gorm ticket repository
type Config struct {
	DB *gorm.DB
}

// gormRepository implements the Repository interface using gorm
type gormRepository struct {
	db *gorm.DB
}

// NewGorm creates a new gorm-backed ticket repository
func NewGorm(cfg *Config) (*gormRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.DB == nil {
		return nil, errors.New("db cannot be nil")
	}

	return &gormRepository{
		db: cfg.DB,
	}, nil
}

// Create inserts a new ticket row. The author must already exist in the
// member directory; the store rejects tickets for unknown members.
func (r *gormRepository) Create(ctx context.Context, input *CreateInput) (*models.Ticket, error) {
	if input == nil || input.Ticket == nil {
		return nil, errors.New("input and ticket cannot be nil")
	}

	if input.Ticket.AuthorID == 0 {
		return nil, errors.New("ticket author ID cannot be empty")
	}

	if err := r.db.WithContext(ctx).Create(input.Ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return input.Ticket, nil
}

// GetByChannel looks up a ticket by its linked Discord channel
func (r *gormRepository) GetByChannel(ctx context.Context, input *GetByChannelInput) (*models.Ticket, error) {
	if input == nil || input.ChannelID == 0 {
		return nil, errors.New("input and channel ID cannot be empty")
	}

	var row models.Ticket
	err := r.db.WithContext(ctx).First(&row, "channel_id = ?", input.ChannelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket for channel %d: %w", input.ChannelID, err)
	}

	return &row, nil
}

// UpdateStatus changes a ticket's lifecycle state and returns the
// updated row
func (r *gormRepository) UpdateStatus(ctx context.Context, input *UpdateStatusInput) (*models.Ticket, error) {
	if input == nil || input.TicketID == 0 {
		return nil, errors.New("input and ticket ID cannot be empty")
	}

	result := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", input.TicketID).
		Update("status", input.Status)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update ticket %d: %w", input.TicketID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrTicketNotFound
	}

	var row models.Ticket
	if err := r.db.WithContext(ctx).First(&row, input.TicketID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload ticket %d: %w", input.TicketID, err)
	}

	return &row, nil
}

// AddEvent appends an audit entry to a ticket's history
func (r *gormRepository) AddEvent(ctx context.Context, input *AddEventInput) error {
	if input == nil || input.Event == nil {
		return errors.New("input and event cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(input.Event).Error; err != nil {
		return fmt.Errorf("failed to add ticket event: %w", err)
	}

	return nil
}
