package activity

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nclabs/communitybot/internal/models"
)

// Config holds configuration for the gorm activity repository
type Config struct {
	DB *gorm.DB
}

// gormRepository implements the Repository interface using gorm
type gormRepository struct {
	db *gorm.DB
}

// NewGorm creates a new gorm-backed activity repository
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

// Append writes one immutable event row. The member row must already
// exist; the store rejects events for unknown members.
func (r *gormRepository) Append(ctx context.Context, input *AppendInput) error {
	if input == nil || input.Event == nil {
		return errors.New("input and event cannot be nil")
	}

	if input.Event.MemberID == 0 {
		return errors.New("event member ID cannot be empty")
	}

	if err := r.db.WithContext(ctx).Create(input.Event).Error; err != nil {
		return fmt.Errorf("failed to append activity event: %w", err)
	}

	return nil
}

// ListSince retrieves all events created at or after the cutoff
func (r *gormRepository) ListSince(ctx context.Context, input *ListSinceInput) (*ListSinceOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	query := r.db.WithContext(ctx).Where("created_at >= ?", input.Since)
	if input.ScorableOnly {
		query = query.Where("points_value > 0")
	}

	var rows []*models.ActivityEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity events: %w", err)
	}

	return &ListSinceOutput{Events: rows}, nil
}
