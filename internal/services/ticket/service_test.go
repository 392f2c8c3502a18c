package ticket

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
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
	ticketRepo "github.com/nclabs/communitybot/internal/repositories/ticket"
)

type TicketServiceTestSuite struct {
	suite.Suite
	mockCtrl *gomock.Controller
	db       *gorm.DB
	service  Service
	ctx      context.Context
	testTime time.Time
}

func (s *TicketServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockClock := mocks.NewMockClock(s.mockCtrl)
	mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(&models.Member{}, &models.Ticket{}, &models.TicketEvent{}))
	s.db = db

	// Staff member used as the resolving actor in tests.
	s.Require().NoError(db.Create(&models.Member{
		DiscordID:   7,
		Username:    "staffer",
		IsStaff:     true,
		FirstSeenAt: s.testTime,
		LastSeenAt:  s.testTime,
	}).Error)

	tickets, err := ticketRepo.NewGorm(&ticketRepo.Config{DB: db})
	s.Require().NoError(err)
	members, err := memberRepo.NewGorm(&memberRepo.Config{DB: db})
	s.Require().NoError(err)

	svc, err := New(&Config{
		TicketRepo: tickets,
		MemberRepo: members,
		Clock:      mockClock,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *TicketServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestTicketServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceTestSuite))
}

func (s *TicketServiceTestSuite) create(channelID int64) *models.Ticket {
	created, err := s.service.Create(s.ctx, &CreateInput{
		AuthorID:  42,
		Username:  "julio",
		ChannelID: channelID,
		Subject:   "cannot access the members area",
	})
	s.Require().NoError(err)
	return created
}

func (s *TicketServiceTestSuite) TestCreateUpsertsAuthorFirst() {
	// Author 42 has never been seen before; creation still succeeds
	// because the member row is written first.
	created := s.create(1000)

	s.NotZero(created.ID)
	s.Equal(models.TicketOpen, created.Status)
	s.Equal(models.PriorityMedium, created.Priority)

	var member models.Member
	s.Require().NoError(s.db.First(&member, "discord_id = ?", 42).Error)
	s.Equal("julio", member.Username)
}

func (s *TicketServiceTestSuite) TestCreateWritesOpeningEvent() {
	created := s.create(1000)

	var events []models.TicketEvent
	s.Require().NoError(s.db.Where("ticket_id = ?", created.ID).Find(&events).Error)
	s.Require().Len(events, 1)
	s.Require().NotNil(events[0].SystemNote)
	s.Equal("Ticket opened", *events[0].SystemNote)
	s.Equal(int64(42), events[0].ActorID)
}

func (s *TicketServiceTestSuite) TestCreateRejectsDuplicateChannel() {
	s.create(1000)

	_, err := s.service.Create(s.ctx, &CreateInput{
		AuthorID:  42,
		Username:  "julio",
		ChannelID: 1000,
		Subject:   "second ticket, same channel",
	})
	s.Require().Error(err)
}

func (s *TicketServiceTestSuite) TestResolve() {
	created := s.create(1000)

	resolved, err := s.service.Resolve(s.ctx, &ResolveInput{
		ChannelID: 1000,
		ActorID:   7,
	})
	s.Require().NoError(err)
	s.Equal(created.ID, resolved.ID)
	s.Equal(models.TicketResolved, resolved.Status)

	var events []models.TicketEvent
	s.Require().NoError(s.db.Where("ticket_id = ? AND system_note = ?", created.ID, "Ticket resolved").Find(&events).Error)
	s.Require().Len(events, 1)
	s.Equal(int64(7), events[0].ActorID)
}

func (s *TicketServiceTestSuite) TestResolveTwiceFails() {
	s.create(1000)

	_, err := s.service.Resolve(s.ctx, &ResolveInput{ChannelID: 1000, ActorID: 7})
	s.Require().NoError(err)

	_, err = s.service.Resolve(s.ctx, &ResolveInput{ChannelID: 1000, ActorID: 7})
	s.Require().ErrorIs(err, ErrTicketAlreadyClosed)
}

func (s *TicketServiceTestSuite) TestResolveUnknownChannel() {
	_, err := s.service.Resolve(s.ctx, &ResolveInput{ChannelID: 9999, ActorID: 7})
	s.Require().ErrorIs(err, ticketRepo.ErrTicketNotFound)
}

func (s *TicketServiceTestSuite) TestGetByChannel() {
	created := s.create(1000)

	found, err := s.service.GetByChannel(s.ctx, &GetByChannelInput{ChannelID: 1000})
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.service.GetByChannel(s.ctx, &GetByChannelInput{ChannelID: 2000})
	s.Require().ErrorIs(err, ticketRepo.ErrTicketNotFound)
}

func (s *TicketServiceTestSuite) TestLogEvent() {
	created := s.create(1000)

	content := "any update on this?"
	s.Require().NoError(s.service.LogEvent(s.ctx, &LogEventInput{
		TicketID:       created.ID,
		ActorID:        42,
		MessageContent: &content,
	}))

	note := "escalated to on-call"
	s.Require().NoError(s.service.LogEvent(s.ctx, &LogEventInput{
		TicketID:   created.ID,
		ActorID:    7,
		IsInternal: true,
		SystemNote: &note,
	}))

	var events []models.TicketEvent
	s.Require().NoError(s.db.Where("ticket_id = ?", created.ID).Order("id ASC").Find(&events).Error)
	s.Require().Len(events, 3)
	s.Require().NotNil(events[1].MessageContent)
	s.Equal(content, *events[1].MessageContent)
	s.False(events[1].IsInternal)
	s.True(events[2].IsInternal)
}
