package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nclabs/communitybot/internal/common/clock"
	"github.com/nclabs/communitybot/internal/models"
	activityRepo "github.com/nclabs/communitybot/internal/repositories/activity"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
)

// ErrUnknownActivityKind indicates a kind missing from the weight
// table. This is a programming error, not an expected runtime
// condition.
var ErrUnknownActivityKind = errors.New("unknown activity kind")

// pointsFor returns the weight for an event kind, stored at 2x scale so
// half points fit in an integer column. The switch must stay exhaustive
// over models.ActivityKind.
func pointsFor(kind models.ActivityKind) (int, error) {
	switch kind {
	case models.ActivityMessageSent:
		return 2, nil
	case models.ActivityReactionAdd:
		return 1, nil
	case models.ActivityThreadCreate:
		return 2, nil
	case models.ActivityMemberJoin, models.ActivityMemberLeave:
		// Membership events are tracked but carry no score.
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivityKind, kind)
	}
}

// CalculateScore converts raw stored points (2x scale) to the canonical
// engagement score.
func CalculateScore(points []int) float64 {
	sum := 0
	for _, p := range points {
		sum += p
	}
	return float64(sum) / 2.0
}

// Config holds configuration for the activity service
type Config struct {
	MemberRepo   memberRepo.Repository
	ActivityRepo activityRepo.Repository
	Clock        clock.Clock
}

// service implements the Service interface
type service struct {
	memberRepo   memberRepo.Repository
	activityRepo activityRepo.Repository
	clock        clock.Clock
}

// New creates a new activity service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.MemberRepo == nil {
		return nil, errors.New("member repository cannot be nil")
	}
	if cfg.ActivityRepo == nil {
		return nil, errors.New("activity repository cannot be nil")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	return &service{
		memberRepo:   cfg.MemberRepo,
		activityRepo: cfg.ActivityRepo,
		clock:        cfg.Clock,
	}, nil
}

// UpsertMember creates or refreshes the member directory row
func (s *service) UpsertMember(ctx context.Context, input *UpsertMemberInput) error {
	if input == nil || input.DiscordID == 0 {
		return errors.New("input and discord ID cannot be empty")
	}

	return s.memberRepo.Upsert(ctx, &memberRepo.UpsertInput{
		DiscordID:     input.DiscordID,
		Username:      input.Username,
		AvatarURL:     input.AvatarURL,
		GuildJoinDate: input.GuildJoinDate,
		SeenAt:        s.clock.Now().UTC(),
	})
}

// Record appends one immutable event to the ledger
func (s *service) Record(ctx context.Context, input *RecordInput) error {
	if input == nil || input.MemberID == 0 {
		return errors.New("input and member ID cannot be empty")
	}

	points, err := pointsFor(input.Kind)
	if err != nil {
		return err
	}

	event := &models.ActivityEvent{
		MemberID:    input.MemberID,
		Kind:        input.Kind,
		ChannelID:   input.ChannelID,
		PointsValue: points,
		CreatedAt:   s.clock.Now().UTC(),
	}

	if input.Metadata != nil {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
		event.Metadata = raw
	}

	return s.activityRepo.Append(ctx, &activityRepo.AppendInput{
		Event: event,
	})
}
