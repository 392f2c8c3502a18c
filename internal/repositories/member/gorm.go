package member

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nclabs/communitybot/internal/models"
)

// ErrMemberNotFound is returned when a member is not found
var ErrMemberNotFound = errors.New("member not found")

// Config holds configuration for the gorm member repository
type Config struct {
	DB *gorm.DB
}

// gormRepository implements the Repository interface using gorm
type gormRepository struct {
	db *gorm.DB
}

// NewGorm creates a new gorm-backed member repository
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

// Upsert creates or refreshes a member row. first_seen_at is written
// only on insert; username, avatar_url and guild_join_date are written
// only when supplied, so a sparse gateway event never clears profile
// fields an earlier event filled in.
func (r *gormRepository) Upsert(ctx context.Context, input *UpsertInput) error {
	if input == nil || input.DiscordID == 0 {
		return errors.New("input and discord ID cannot be empty")
	}

	assignments := map[string]interface{}{
		"last_seen_at": input.SeenAt,
	}
	if input.Username != "" {
		assignments["username"] = input.Username
	}
	if input.AvatarURL != nil {
		assignments["avatar_url"] = input.AvatarURL
	}
	if input.GuildJoinDate != nil {
		assignments["guild_join_date"] = input.GuildJoinDate
	}

	row := &models.Member{
		DiscordID:     input.DiscordID,
		Username:      input.Username,
		AvatarURL:     input.AvatarURL,
		GuildJoinDate: input.GuildJoinDate,
		FirstSeenAt:   input.SeenAt,
		LastSeenAt:    input.SeenAt,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "discord_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert member %d: %w", input.DiscordID, err)
	}

	return nil
}

// Get retrieves a member by Discord ID
func (r *gormRepository) Get(ctx context.Context, input *GetInput) (*models.Member, error) {
	if input == nil || input.DiscordID == 0 {
		return nil, errors.New("input and discord ID cannot be empty")
	}

	var row models.Member
	err := r.db.WithContext(ctx).First(&row, "discord_id = ?", input.DiscordID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member %d: %w", input.DiscordID, err)
	}

	return &row, nil
}

// ListByIDs retrieves the members for a set of Discord IDs
func (r *gormRepository) ListByIDs(ctx context.Context, input *ListByIDsInput) (*ListByIDsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if len(input.DiscordIDs) == 0 {
		return &ListByIDsOutput{Members: []*models.Member{}}, nil
	}

	var rows []*models.Member
	err := r.db.WithContext(ctx).Where("discord_id IN ?", input.DiscordIDs).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return &ListByIDsOutput{Members: rows}, nil
}
