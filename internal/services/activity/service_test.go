package activity

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

type ActivityServiceTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *mocks.MockClock
	db        *gorm.DB
	service   Service
	ctx       context.Context
	testTime  time.Time
}

func (s *ActivityServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = mocks.NewMockClock(s.mockCtrl)
	s.ctx = context.Background()
	s.testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(&models.Member{}, &models.ActivityEvent{}))
	s.db = db

	members, err := memberRepo.NewGorm(&memberRepo.Config{DB: db})
	s.Require().NoError(err)
	events, err := activityRepo.NewGorm(&activityRepo.Config{DB: db})
	s.Require().NoError(err)

	svc, err := New(&Config{
		MemberRepo:   members,
		ActivityRepo: events,
		Clock:        s.mockClock,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *ActivityServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestActivityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ActivityServiceTestSuite))
}

func (s *ActivityServiceTestSuite) TestCalculateScore() {
	s.Equal(1.0, CalculateScore([]int{2}))
	s.Equal(0.5, CalculateScore([]int{1}))
	s.Equal(4.0, CalculateScore([]int{2, 2, 2, 1, 1}))
	s.Equal(0.0, CalculateScore([]int{}))
}

func (s *ActivityServiceTestSuite) TestRecordStoresWeightPerKind() {
	s.Require().NoError(s.service.UpsertMember(s.ctx, &UpsertMemberInput{
		DiscordID: 42,
		Username:  "julio",
	}))

	cases := []struct {
		kind   models.ActivityKind
		points int
	}{
		{models.ActivityMessageSent, 2},
		{models.ActivityReactionAdd, 1},
		{models.ActivityThreadCreate, 2},
		{models.ActivityMemberJoin, 0},
		{models.ActivityMemberLeave, 0},
	}

	for _, tc := range cases {
		err := s.service.Record(s.ctx, &RecordInput{
			MemberID:  42,
			Kind:      tc.kind,
			ChannelID: 555,
		})
		s.Require().NoError(err)

		var row models.ActivityEvent
		s.Require().NoError(s.db.Where("kind = ?", tc.kind).First(&row).Error)
		s.Equal(tc.points, row.PointsValue, "kind %s", tc.kind)
		s.Equal(s.testTime.Unix(), row.CreatedAt.Unix())
	}
}

func (s *ActivityServiceTestSuite) TestRecordRejectsUnknownKind() {
	s.Require().NoError(s.service.UpsertMember(s.ctx, &UpsertMemberInput{
		DiscordID: 42,
		Username:  "julio",
	}))

	err := s.service.Record(s.ctx, &RecordInput{
		MemberID: 42,
		Kind:     models.ActivityKind("voice_join"),
	})
	s.Require().ErrorIs(err, ErrUnknownActivityKind)
}

func (s *ActivityServiceTestSuite) TestRecordCarriesMetadata() {
	s.Require().NoError(s.service.UpsertMember(s.ctx, &UpsertMemberInput{
		DiscordID: 42,
		Username:  "julio",
	}))

	err := s.service.Record(s.ctx, &RecordInput{
		MemberID:  42,
		Kind:      models.ActivityMessageSent,
		ChannelID: 555,
		Metadata:  map[string]interface{}{"message_id": "111222333"},
	})
	s.Require().NoError(err)

	var row models.ActivityEvent
	s.Require().NoError(s.db.First(&row).Error)
	s.Contains(string(row.Metadata), "111222333")
}

func (s *ActivityServiceTestSuite) TestRecordFailsForUnknownMember() {
	err := s.service.Record(s.ctx, &RecordInput{
		MemberID:  999,
		Kind:      models.ActivityMessageSent,
		ChannelID: 555,
	})
	s.Require().Error(err)
}

func (s *ActivityServiceTestSuite) TestUpsertMemberAdvancesLastSeen() {
	s.Require().NoError(s.service.UpsertMember(s.ctx, &UpsertMemberInput{
		DiscordID: 42,
		Username:  "julio",
	}))

	var row models.Member
	s.Require().NoError(s.db.First(&row, "discord_id = ?", 42).Error)
	s.Equal(s.testTime.Unix(), row.LastSeenAt.Unix())
}
