package engagement

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/nclabs/communitybot/internal/common/clock"
	activityService "github.com/nclabs/communitybot/internal/services/activity"

	activityRepo "github.com/nclabs/communitybot/internal/repositories/activity"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
)

const (
	defaultActiveWindowDays    = 30
	defaultSilentThresholdDays = 7
	defaultChurnLimit          = 10
	defaultStarsLimit          = 10

	dayLayout = "2006-01-02"
)

// Config holds configuration for the engagement service
type Config struct {
	ActivityRepo activityRepo.Repository
	MemberRepo   memberRepo.Repository
	Clock        clock.Clock
}

// service implements the Service interface
type service struct {
	activityRepo activityRepo.Repository
	memberRepo   memberRepo.Repository
	clock        clock.Clock
}

// New creates a new engagement service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.ActivityRepo == nil {
		return nil, errors.New("activity repository cannot be nil")
	}
	if cfg.MemberRepo == nil {
		return nil, errors.New("member repository cannot be nil")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	return &service{
		activityRepo: cfg.ActivityRepo,
		memberRepo:   cfg.MemberRepo,
		clock:        cfg.Clock,
	}, nil
}

// WeeklyScores aggregates scorable events into per-UTC-day scores for
// the trailing seven days and the seven days before that. Whole days
// only: each calendar day lands in exactly one series. Days with no
// events are absent from the series rather than zero-filled.
func (s *service) WeeklyScores(ctx context.Context) (*WeeklyScoresOutput, error) {
	now := s.clock.Now().UTC()

	out, err := s.activityRepo.ListSince(ctx, &activityRepo.ListSinceInput{
		Since:        now.AddDate(0, 0, -14),
		ScorableOnly: true,
	})
	if err != nil {
		return nil, err
	}

	daily := make(map[string]int)
	for _, event := range out.Events {
		daily[event.CreatedAt.UTC().Format(dayLayout)] += event.PointsValue
	}

	// ISO dates order lexically, so string comparison splits the days.
	cutoffDay := now.AddDate(0, 0, -7).Format(dayLayout)
	current := make(map[string]int)
	previous := make(map[string]int)
	for day, sum := range daily {
		if day < cutoffDay {
			previous[day] = sum
		} else {
			current[day] = sum
		}
	}

	return &WeeklyScoresOutput{
		CurrentWeek:  toSeries(current),
		PreviousWeek: toSeries(previous),
	}, nil
}

func toSeries(points map[string]int) []*DayScore {
	series := make([]*DayScore, 0, len(points))
	for day, sum := range points {
		series = append(series, &DayScore{
			Date:  day,
			Score: activityService.CalculateScore([]int{sum}),
		})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return series
}

// RisingStars ranks members by trailing-seven-day score. Ties keep the
// order the store returned them in.
func (s *service) RisingStars(ctx context.Context, input *RisingStarsInput) (*RisingStarsOutput, error) {
	limit := defaultStarsLimit
	if input != nil && input.Limit > 0 {
		limit = input.Limit
	}

	now := s.clock.Now().UTC()
	out, err := s.activityRepo.ListSince(ctx, &activityRepo.ListSinceInput{
		Since:        now.AddDate(0, 0, -7),
		ScorableOnly: true,
	})
	if err != nil {
		return nil, err
	}

	type tally struct {
		points int
		events int
	}
	totals := make(map[int64]*tally)
	order := make([]int64, 0)
	for _, event := range out.Events {
		t, ok := totals[event.MemberID]
		if !ok {
			t = &tally{}
			totals[event.MemberID] = t
			order = append(order, event.MemberID)
		}
		t.points += event.PointsValue
		t.events++
	}

	ranked := make([]*RisingStar, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, &RisingStar{
			DiscordID:  id,
			Score:      activityService.CalculateScore([]int{totals[id].points}),
			EventCount: totals[id].events,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	names, err := s.usernames(ctx, func() []int64 {
		ids := make([]int64, 0, len(ranked))
		for _, entry := range ranked {
			ids = append(ids, entry.DiscordID)
		}
		return ids
	}())
	if err != nil {
		return nil, err
	}
	for _, entry := range ranked {
		entry.Username = names[entry.DiscordID]
	}

	return &RisingStarsOutput{Members: ranked}, nil
}

// ChurnRisks finds members whose last event falls inside the active
// window but is older than the silence threshold. Silence is measured
// in whole elapsed days.
func (s *service) ChurnRisks(ctx context.Context, input *ChurnRisksInput) (*ChurnRisksOutput, error) {
	activeWindow := defaultActiveWindowDays
	silentThreshold := defaultSilentThresholdDays
	limit := defaultChurnLimit
	if input != nil {
		if input.ActiveWindowDays > 0 {
			activeWindow = input.ActiveWindowDays
		}
		if input.SilentThresholdDays > 0 {
			silentThreshold = input.SilentThresholdDays
		}
		if input.Limit > 0 {
			limit = input.Limit
		}
	}

	now := s.clock.Now().UTC()
	out, err := s.activityRepo.ListSince(ctx, &activityRepo.ListSinceInput{
		Since: now.AddDate(0, 0, -activeWindow),
	})
	if err != nil {
		return nil, err
	}

	lastSeen := make(map[int64]time.Time)
	for _, event := range out.Events {
		if event.CreatedAt.After(lastSeen[event.MemberID]) {
			lastSeen[event.MemberID] = event.CreatedAt
		}
	}

	cutoff := now.AddDate(0, 0, -silentThreshold)
	risks := make([]*ChurnRisk, 0)
	for id, last := range lastSeen {
		if last.After(cutoff) {
			continue
		}
		risks = append(risks, &ChurnRisk{
			DiscordID:  id,
			LastActive: last.UTC().Format(dayLayout),
			DaysSilent: int(now.Sub(last).Hours() / 24),
		})
	}
	sort.Slice(risks, func(i, j int) bool {
		if risks[i].DaysSilent != risks[j].DaysSilent {
			return risks[i].DaysSilent > risks[j].DaysSilent
		}
		return risks[i].DiscordID < risks[j].DiscordID
	})
	if len(risks) > limit {
		risks = risks[:limit]
	}

	ids := make([]int64, 0, len(risks))
	for _, entry := range risks {
		ids = append(ids, entry.DiscordID)
	}
	names, err := s.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, entry := range risks {
		entry.Username = names[entry.DiscordID]
	}

	return &ChurnRisksOutput{Members: risks}, nil
}

func (s *service) usernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	out, err := s.memberRepo.ListByIDs(ctx, &memberRepo.ListByIDsInput{DiscordIDs: ids})
	if err != nil {
		return nil, err
	}
	for _, m := range out.Members {
		names[m.DiscordID] = m.Username
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = "Unknown"
		}
	}

	return names, nil
}
