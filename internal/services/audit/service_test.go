package audit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	clockMocks "github.com/nclabs/communitybot/internal/common/clock/mocks"
	"github.com/nclabs/communitybot/internal/llm"
	llmMocks "github.com/nclabs/communitybot/internal/llm/mocks"
	"github.com/nclabs/communitybot/internal/models"
	auditRepo "github.com/nclabs/communitybot/internal/repositories/audit"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
)

type AuditServiceTestSuite struct {
	suite.Suite
	mockCtrl *gomock.Controller
	mockLLM  *llmMocks.MockClient
	db       *gorm.DB
	service  Service
	ctx      context.Context
	testTime time.Time
}

func (s *AuditServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockLLM = llmMocks.NewMockClient(s.mockCtrl)
	s.ctx = context.Background()
	s.testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockClock := clockMocks.NewMockClock(s.mockCtrl)
	mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(&models.Member{}, &models.AuditLog{}))
	s.db = db

	logs, err := auditRepo.NewGorm(&auditRepo.Config{DB: db})
	s.Require().NoError(err)
	members, err := memberRepo.NewGorm(&memberRepo.Config{DB: db})
	s.Require().NoError(err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc, err := New(&Config{
		LLM:        s.mockLLM,
		AuditRepo:  logs,
		MemberRepo: members,
		Clock:      mockClock,
		Logger:     logrus.NewEntry(logger),
		Timeout:    5 * time.Second,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *AuditServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAuditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (s *AuditServiceTestSuite) auditRowCount() int {
	var count int64
	s.Require().NoError(s.db.Model(&models.AuditLog{}).Count(&count).Error)
	return int(count)
}

func (s *AuditServiceTestSuite) TestAnalyzeReturnsVerdict() {
	s.mockLLM.EXPECT().
		Generate(gomock.Any(), &llm.GenerateInput{Prompt: "Analyze this text: hello everyone"}).
		Return(&llm.GenerateOutput{
			Text:       `{"rating": "green", "summary": "Friendly greeting."}`,
			TokensUsed: 120,
		}, nil)

	out, err := s.service.Analyze(s.ctx, &AnalyzeInput{
		MemberID: 42,
		Username: "julio",
		Text:     "hello everyone",
	})
	s.Require().NoError(err)
	s.Equal(RatingGreen, out.Verdict.Rating)
	s.Equal("Friendly greeting.", out.Verdict.Summary)
}

func (s *AuditServiceTestSuite) TestAnalyzeWritesAuditLogInBackground() {
	s.mockLLM.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(&llm.GenerateOutput{
			Text:       `{"rating": "yellow", "summary": "Borderline."}`,
			TokensUsed: 88,
		}, nil)

	_, err := s.service.Analyze(s.ctx, &AnalyzeInput{
		MemberID: 42,
		Username: "julio",
		Text:     "some text",
	})
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		return s.auditRowCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	var row models.AuditLog
	s.Require().NoError(s.db.First(&row).Error)
	s.NotEmpty(row.ID)
	s.Equal(int64(42), row.MemberID)
	s.Equal("audit", row.CommandName)
	s.Equal("Analyze this text: some text", row.InputPrompt)
	s.Contains(row.RawResponse, "Borderline")
	s.Equal(88, row.TokensUsed)
}

func (s *AuditServiceTestSuite) TestAnalyzeFallbackVerdictStillLogged() {
	s.mockLLM.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(&llm.GenerateOutput{Text: "not json at all"}, nil)

	out, err := s.service.Analyze(s.ctx, &AnalyzeInput{
		MemberID: 42,
		Username: "julio",
		Text:     "some text",
	})
	s.Require().NoError(err)
	s.Equal(RatingUnknown, out.Verdict.Rating)
	s.Equal("not json at all", out.Verdict.Summary)

	s.Require().Eventually(func() bool {
		return s.auditRowCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *AuditServiceTestSuite) TestAnalyzeModelFailureLeavesNoTrace() {
	s.mockLLM.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("deadline exceeded"))

	_, err := s.service.Analyze(s.ctx, &AnalyzeInput{
		MemberID: 42,
		Username: "julio",
		Text:     "some text",
	})
	s.Require().Error(err)

	// Give any stray background write a moment to land, then confirm
	// nothing did.
	time.Sleep(50 * time.Millisecond)
	s.Zero(s.auditRowCount())
}

func (s *AuditServiceTestSuite) TestAnalyzeRejectsEmptyText() {
	_, err := s.service.Analyze(s.ctx, &AnalyzeInput{MemberID: 42})
	s.Require().Error(err)
}
