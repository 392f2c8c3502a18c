package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nclabs/communitybot/internal/models"
)

// Config holds connection settings for the durable store.
type Config struct {
	// DSN is a postgres connection string
	DSN string

	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to postgres and configures the connection pool.
func Open(cfg *Config) (*gorm.DB, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 2
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates the schema for all tracked entities.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Member{},
		&models.ActivityEvent{},
		&models.PresenceSession{},
		&models.Ticket{},
		&models.TicketEvent{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
