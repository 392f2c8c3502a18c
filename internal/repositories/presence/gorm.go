package presence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nclabs/communitybot/internal/models"
)

// ErrNoOpenSession is returned when a member has no open session
var ErrNoOpenSession = errors.New("no open session")

// Config holds configuration for the gorm presence repository
type Config struct {
	DB *gorm.DB
}

// gormRepository implements the Repository interface using gorm
type gormRepository struct {
	db *gorm.DB
}

// NewGorm creates a new gorm-backed presence repository
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

// Open inserts a new open session row for a member
func (r *gormRepository) Open(ctx context.Context, input *OpenInput) error {
	if input == nil || input.MemberID == 0 {
		return errors.New("input and member ID cannot be empty")
	}

	row := &models.PresenceSession{
		MemberID:  input.MemberID,
		Status:    input.Status,
		StartedAt: input.StartedAt,
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to open session for member %d: %w", input.MemberID, err)
	}

	return nil
}

// GetOpen retrieves a member's open session. At most one session per
// member is open by invariant; the oldest is returned if that invariant
// has somehow been violated.
func (r *gormRepository) GetOpen(ctx context.Context, input *GetOpenInput) (*models.PresenceSession, error) {
	if input == nil || input.MemberID == 0 {
		return nil, errors.New("input and member ID cannot be empty")
	}

	var row models.PresenceSession
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND ended_at IS NULL", input.MemberID).
		Order("started_at ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("failed to get open session for member %d: %w", input.MemberID, err)
	}

	return &row, nil
}

// Close sets a session's end timestamp and duration
func (r *gormRepository) Close(ctx context.Context, input *CloseInput) error {
	if input == nil || input.SessionID == 0 {
		return errors.New("input and session ID cannot be empty")
	}

	err := r.db.WithContext(ctx).
		Model(&models.PresenceSession{}).
		Where("id = ?", input.SessionID).
		Updates(map[string]interface{}{
			"ended_at":         input.EndedAt,
			"duration_seconds": input.DurationSeconds,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to close session %d: %w", input.SessionID, err)
	}

	return nil
}

// CloseAllOpen closes every open session across all members. Any open
// row found here is left over from a previous process run.
func (r *gormRepository) CloseAllOpen(ctx context.Context, input *CloseAllOpenInput) (*CloseAllOpenOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	var stale []*models.PresenceSession
	err := r.db.WithContext(ctx).Where("ended_at IS NULL").Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}

	for _, row := range stale {
		duration := int64(input.ClosedAt.Sub(row.StartedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
		if err := r.Close(ctx, &CloseInput{
			SessionID:       row.ID,
			EndedAt:         input.ClosedAt,
			DurationSeconds: duration,
		}); err != nil {
			return nil, err
		}
	}

	return &CloseAllOpenOutput{Closed: len(stale)}, nil
}

// ListOpenedSince retrieves sessions opened at or after the cutoff
func (r *gormRepository) ListOpenedSince(ctx context.Context, input *ListOpenedSinceInput) (*ListSessionsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	var rows []*models.PresenceSession
	err := r.db.WithContext(ctx).Where("started_at >= ?", input.Since).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &ListSessionsOutput{Sessions: rows}, nil
}

// ListActiveInWindow retrieves sessions overlapping the window: opened
// before now and either still open or ended after the cutoff.
func (r *gormRepository) ListActiveInWindow(ctx context.Context, input *ListActiveInWindowInput) (*ListSessionsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	var rows []*models.PresenceSession
	err := r.db.WithContext(ctx).
		Where("ended_at IS NULL OR ended_at >= ?", input.Since).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &ListSessionsOutput{Sessions: rows}, nil
}
