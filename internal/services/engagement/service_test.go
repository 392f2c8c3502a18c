package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nclabs/communitybot/internal/common/clock/mocks"
	"github.com/nclabs/communitybot/internal/models"
	activityRepo "github.com/nclabs/communitybot/internal/repositories/activity"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
)

type EngagementServiceTestSuite struct {
	suite.Suite
	mockCtrl *gomock.Controller
	db       *gorm.DB
	service  Service
	ctx      context.Context
	testTime time.Time
}

func (s *EngagementServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	mockClock := mocks.NewMockClock(s.mockCtrl)
	mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(&models.Member{}, &models.ActivityEvent{}))
	s.db = db

	for _, m := range []struct {
		id   int64
		name string
	}{{1, "alpha"}, {2, "bravo"}, {3, "charlie"}} {
		s.Require().NoError(db.Create(&models.Member{
			DiscordID:   m.id,
			Username:    m.name,
			FirstSeenAt: s.testTime,
			LastSeenAt:  s.testTime,
		}).Error)
	}

	events, err := activityRepo.NewGorm(&activityRepo.Config{DB: db})
	s.Require().NoError(err)
	members, err := memberRepo.NewGorm(&memberRepo.Config{DB: db})
	s.Require().NoError(err)

	svc, err := New(&Config{
		ActivityRepo: events,
		MemberRepo:   members,
		Clock:        mockClock,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *EngagementServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestEngagementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EngagementServiceTestSuite))
}

func (s *EngagementServiceTestSuite) addEvent(memberID int64, kind models.ActivityKind, points int, at time.Time) {
	s.Require().NoError(s.db.Create(&models.ActivityEvent{
		MemberID:    memberID,
		Kind:        kind,
		PointsValue: points,
		CreatedAt:   at,
	}).Error)
}

func (s *EngagementServiceTestSuite) TestWeeklyScoresSplitsWeeks() {
	// Two messages and a reaction today, one message yesterday, one
	// message ten days ago.
	today := s.testTime
	s.addEvent(1, models.ActivityMessageSent, 2, today)
	s.addEvent(2, models.ActivityMessageSent, 2, today)
	s.addEvent(1, models.ActivityReactionAdd, 1, today)
	s.addEvent(1, models.ActivityMessageSent, 2, today.AddDate(0, 0, -1))
	s.addEvent(2, models.ActivityMessageSent, 2, today.AddDate(0, 0, -10))

	out, err := s.service.WeeklyScores(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(out.CurrentWeek, 2)
	s.Equal("2025-06-14", out.CurrentWeek[0].Date)
	s.Equal(1.0, out.CurrentWeek[0].Score)
	s.Equal("2025-06-15", out.CurrentWeek[1].Date)
	s.Equal(2.5, out.CurrentWeek[1].Score)

	s.Require().Len(out.PreviousWeek, 1)
	s.Equal("2025-06-05", out.PreviousWeek[0].Date)
	s.Equal(1.0, out.PreviousWeek[0].Score)
}

func (s *EngagementServiceTestSuite) TestWeeklyScoresBoundaryDayStaysWhole() {
	// Events before and after the cutoff instant, both on the day
	// exactly seven days back. The day must land in one series with its
	// full sum, never split across both.
	boundary := s.testTime.AddDate(0, 0, -7)
	s.addEvent(1, models.ActivityMessageSent, 2, boundary.Add(-2*time.Hour))
	s.addEvent(1, models.ActivityMessageSent, 2, boundary.Add(2*time.Hour))

	out, err := s.service.WeeklyScores(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(out.CurrentWeek, 1)
	s.Equal("2025-06-08", out.CurrentWeek[0].Date)
	s.Equal(2.0, out.CurrentWeek[0].Score)
	s.Empty(out.PreviousWeek)
}

func (s *EngagementServiceTestSuite) TestWeeklyScoresOmitsEmptyDays() {
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime)

	out, err := s.service.WeeklyScores(s.ctx)
	s.Require().NoError(err)
	s.Len(out.CurrentWeek, 1)
	s.Empty(out.PreviousWeek)
}

func (s *EngagementServiceTestSuite) TestWeeklyScoresIgnoresOldEvents() {
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -20))

	out, err := s.service.WeeklyScores(s.ctx)
	s.Require().NoError(err)
	s.Empty(out.CurrentWeek)
	s.Empty(out.PreviousWeek)
}

func (s *EngagementServiceTestSuite) TestRisingStarsRanksByScore() {
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime)
	s.addEvent(2, models.ActivityMessageSent, 2, s.testTime)
	s.addEvent(2, models.ActivityReactionAdd, 1, s.testTime)
	s.addEvent(3, models.ActivityReactionAdd, 1, s.testTime)

	out, err := s.service.RisingStars(s.ctx, &RisingStarsInput{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(out.Members, 3)

	s.Equal("bravo", out.Members[0].Username)
	s.Equal(1.5, out.Members[0].Score)
	s.Equal(2, out.Members[0].EventCount)

	s.Equal("alpha", out.Members[1].Username)
	s.Equal(1.0, out.Members[1].Score)

	s.Equal("charlie", out.Members[2].Username)
	s.Equal(0.5, out.Members[2].Score)
}

func (s *EngagementServiceTestSuite) TestRisingStarsHonorsLimit() {
	for _, id := range []int64{1, 2, 3} {
		s.addEvent(id, models.ActivityMessageSent, 2, s.testTime)
	}

	out, err := s.service.RisingStars(s.ctx, &RisingStarsInput{Limit: 2})
	s.Require().NoError(err)
	s.Len(out.Members, 2)
}

func (s *EngagementServiceTestSuite) TestRisingStarsExcludesZeroWeightEvents() {
	s.addEvent(1, models.ActivityMemberJoin, 0, s.testTime)

	out, err := s.service.RisingStars(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(out.Members)
}

func (s *EngagementServiceTestSuite) TestChurnRisks() {
	// Member 1 spoke 10 days ago, member 2 spoke 3 days ago, member 3
	// spoke 40 days ago and is outside the active window.
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -10))
	s.addEvent(2, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -3))
	s.addEvent(3, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -40))

	out, err := s.service.ChurnRisks(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(out.Members, 1)
	s.Equal("alpha", out.Members[0].Username)
	s.Equal("2025-06-05", out.Members[0].LastActive)
	s.Equal(10, out.Members[0].DaysSilent)
}

func (s *EngagementServiceTestSuite) TestChurnRisksUsesLatestEvent() {
	// An old event does not mark a member at risk when a recent one
	// exists.
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -10))
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -1))

	out, err := s.service.ChurnRisks(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(out.Members)
}

func (s *EngagementServiceTestSuite) TestChurnRisksRanksBySilence() {
	s.addEvent(1, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -8))
	s.addEvent(2, models.ActivityMessageSent, 2, s.testTime.AddDate(0, 0, -15))

	out, err := s.service.ChurnRisks(s.ctx, &ChurnRisksInput{Limit: 5})
	s.Require().NoError(err)
	s.Require().Len(out.Members, 2)
	s.Equal("bravo", out.Members[0].Username)
	s.Equal(15, out.Members[0].DaysSilent)
	s.Equal("alpha", out.Members[1].Username)
	s.Equal(8, out.Members[1].DaysSilent)
}
