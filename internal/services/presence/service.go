package presence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nclabs/communitybot/internal/common/clock"
	"github.com/nclabs/communitybot/internal/models"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
	presenceRepo "github.com/nclabs/communitybot/internal/repositories/presence"
)

var (
	// ErrRecoveryPending is returned when a transition arrives before
	// the startup sweep has closed stale sessions. Accepting it could
	// leave two open sessions for one member.
	ErrRecoveryPending = errors.New("stale session recovery has not completed")

	// ErrUnknownStatus indicates a wire status outside the known set
	ErrUnknownStatus = errors.New("unknown presence status")
)

// maxSessionSpan bounds the peak-hours cost of abnormally long or
// indefinitely open sessions.
const maxSessionSpan = 24 * time.Hour

const unknownUsername = "Unknown"

// Config holds configuration for the presence service
type Config struct {
	PresenceRepo presenceRepo.Repository
	MemberRepo   memberRepo.Repository
	Clock        clock.Clock
}

// service implements the Service interface
type service struct {
	presenceRepo presenceRepo.Repository
	memberRepo   memberRepo.Repository
	clock        clock.Clock

	recovered atomic.Bool

	// Transitions for a single member must not interleave; cross-member
	// transitions are independent.
	mu          sync.Mutex
	memberLocks map[int64]*sync.Mutex
}

// New creates a new presence service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.PresenceRepo == nil {
		return nil, errors.New("presence repository cannot be nil")
	}
	if cfg.MemberRepo == nil {
		return nil, errors.New("member repository cannot be nil")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	return &service{
		presenceRepo: cfg.PresenceRepo,
		memberRepo:   cfg.MemberRepo,
		clock:        cfg.Clock,
		memberLocks:  make(map[int64]*sync.Mutex),
	}, nil
}

// Recover closes every session left open by a prior run, computing each
// duration against the current time. A prior process may have been
// killed mid-session; until this has run, opening new sessions could
// violate the one-open-session-per-member invariant.
func (s *service) Recover(ctx context.Context) (*RecoverOutput, error) {
	out, err := s.presenceRepo.CloseAllOpen(ctx, &presenceRepo.CloseAllOpenInput{
		ClosedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recover stale sessions: %w", err)
	}

	s.recovered.Store(true)

	return &RecoverOutput{Closed: out.Closed}, nil
}

// parseStatus maps a wire status to the stored enum. "invisible" is
// what Discord shows other members as offline, so it closes sessions
// the same way.
func parseStatus(raw string) (models.PresenceStatus, bool, error) {
	switch raw {
	case "offline", "invisible":
		return "", true, nil
	case "online":
		return models.PresenceOnline, false, nil
	case "idle":
		return models.PresenceIdle, false, nil
	case "dnd":
		return models.PresenceDND, false, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// HandleTransition applies one status change. The prior state is read
// from the store rather than trusted from the gateway: if an open
// session exists its status is the member's last known status, and a
// close without one is a silent no-op (the open event was missed).
func (s *service) HandleTransition(ctx context.Context, input *TransitionInput) error {
	if input == nil || input.MemberID == 0 {
		return errors.New("input and member ID cannot be empty")
	}

	if !s.recovered.Load() {
		return ErrRecoveryPending
	}

	status, offline, err := parseStatus(input.Status)
	if err != nil {
		return err
	}

	lock := s.memberLock(input.MemberID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now().UTC()

	open, err := s.presenceRepo.GetOpen(ctx, &presenceRepo.GetOpenInput{
		MemberID: input.MemberID,
	})
	noOpen := errors.Is(err, presenceRepo.ErrNoOpenSession)
	if err != nil && !noOpen {
		return err
	}

	if offline {
		if noOpen {
			return nil
		}
		return s.closeSession(ctx, open, now)
	}

	if noOpen {
		return s.presenceRepo.Open(ctx, &presenceRepo.OpenInput{
			MemberID:  input.MemberID,
			Status:    status,
			StartedAt: now,
		})
	}

	// Same status again (e.g. an activity change): the session continues.
	if open.Status == status {
		return nil
	}

	// Status changed while still non-offline: close then reopen, so no
	// single session ever carries more than one status label.
	if err := s.closeSession(ctx, open, now); err != nil {
		return err
	}
	return s.presenceRepo.Open(ctx, &presenceRepo.OpenInput{
		MemberID:  input.MemberID,
		Status:    status,
		StartedAt: now,
	})
}

func (s *service) closeSession(ctx context.Context, open *models.PresenceSession, now time.Time) error {
	duration := int64(now.Sub(open.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	return s.presenceRepo.Close(ctx, &presenceRepo.CloseInput{
		SessionID:       open.ID,
		EndedAt:         now,
		DurationSeconds: duration,
	})
}

func (s *service) memberLock(memberID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.memberLocks[memberID]
	if !ok {
		lock = &sync.Mutex{}
		s.memberLocks[memberID] = lock
	}
	return lock
}

// Stats summarizes sessions opened within the trailing window
func (s *service) Stats(ctx context.Context, input *StatsInput) (*StatsOutput, error) {
	if input == nil || input.Days <= 0 {
		return nil, errors.New("input and days must be positive")
	}

	now := s.clock.Now().UTC()
	out, err := s.presenceRepo.ListOpenedSince(ctx, &presenceRepo.ListOpenedSinceInput{
		Since: windowStart(now, input.Days),
	})
	if err != nil {
		return nil, err
	}

	var (
		closedSum   int64
		closedCount int64
		members     = make(map[int64]struct{})
	)
	for _, sess := range out.Sessions {
		members[sess.MemberID] = struct{}{}
		if sess.DurationSeconds != nil {
			closedSum += *sess.DurationSeconds
			closedCount++
		}
	}

	stats := &StatsOutput{
		TotalSessions:   len(out.Sessions),
		DistinctMembers: len(members),
	}
	if closedCount > 0 {
		stats.AverageDurationSeconds = closedSum / closedCount
	}

	return stats, nil
}

// PeakHours computes, for each UTC clock hour, the average number of
// members online during that hour across the window. Every clock hour a
// session overlaps, even partially, contributes one count; the span is
// clipped at 24 hours and an open session is treated as ending now.
func (s *service) PeakHours(ctx context.Context, input *PeakHoursInput) (*PeakHoursOutput, error) {
	if input == nil || input.Days <= 0 {
		return nil, errors.New("input and days must be positive")
	}

	now := s.clock.Now().UTC()
	out, err := s.presenceRepo.ListActiveInWindow(ctx, &presenceRepo.ListActiveInWindowInput{
		Since: windowStart(now, input.Days),
	})
	if err != nil {
		return nil, err
	}

	result := &PeakHoursOutput{}
	for _, sess := range out.Sessions {
		start := sess.StartedAt.UTC()
		end := now
		if sess.EndedAt != nil {
			end = sess.EndedAt.UTC()
		}
		if end.Before(start) {
			continue
		}
		if end.Sub(start) > maxSessionSpan {
			end = start.Add(maxSessionSpan)
		}

		hour := start.Truncate(time.Hour)
		for i := 0; i < 24 && !hour.After(end); i++ {
			result.Buckets[hour.Hour()]++
			hour = hour.Add(time.Hour)
		}
	}

	for i := range result.Buckets {
		result.Buckets[i] /= float64(input.Days)
	}

	return result, nil
}

// TopMembers ranks members by summed closed-session duration within the
// window
func (s *service) TopMembers(ctx context.Context, input *TopMembersInput) (*TopMembersOutput, error) {
	if input == nil || input.Days <= 0 {
		return nil, errors.New("input and days must be positive")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	now := s.clock.Now().UTC()
	out, err := s.presenceRepo.ListOpenedSince(ctx, &presenceRepo.ListOpenedSinceInput{
		Since: windowStart(now, input.Days),
	})
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]int64)
	for _, sess := range out.Sessions {
		if sess.DurationSeconds == nil {
			continue
		}
		totals[sess.MemberID] += *sess.DurationSeconds
	}

	ranked := make([]*MemberPresence, 0, len(totals))
	for id, seconds := range totals {
		ranked = append(ranked, &MemberPresence{
			DiscordID:    id,
			TotalSeconds: seconds,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].TotalSeconds > ranked[j].TotalSeconds
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if err := s.fillUsernames(ctx, ranked); err != nil {
		return nil, err
	}

	return &TopMembersOutput{Members: ranked}, nil
}

func (s *service) fillUsernames(ctx context.Context, ranked []*MemberPresence) error {
	if len(ranked) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(ranked))
	for _, entry := range ranked {
		ids = append(ids, entry.DiscordID)
	}

	out, err := s.memberRepo.ListByIDs(ctx, &memberRepo.ListByIDsInput{DiscordIDs: ids})
	if err != nil {
		return err
	}

	names := make(map[int64]string, len(out.Members))
	for _, m := range out.Members {
		names[m.DiscordID] = m.Username
	}
	for _, entry := range ranked {
		if name, ok := names[entry.DiscordID]; ok {
			entry.Username = name
		} else {
			entry.Username = unknownUsername
		}
	}

	return nil
}
