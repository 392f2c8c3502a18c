package audit

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Config holds configuration for the gorm audit repository
type Config struct {
	DB *gorm.DB
}

// gormRepository implements the Repository interface using gorm
type gormRepository struct {
	db *gorm.DB
}

// NewGorm creates a new gorm-backed audit repository
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

// Insert writes one audit log row
func (r *gormRepository) Insert(ctx context.Context, input *InsertInput) error {
	if input == nil || input.Log == nil {
		return errors.New("input and log cannot be nil")
	}

	if input.Log.ID == "" {
		return errors.New("audit log ID cannot be empty")
	}

	if err := r.db.WithContext(ctx).Create(input.Log).Error; err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}
