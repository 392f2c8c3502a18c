package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nclabs/communitybot/internal/common/clock"
	"github.com/nclabs/communitybot/internal/llm"
	"github.com/nclabs/communitybot/internal/metrics"
	"github.com/nclabs/communitybot/internal/models"
	auditRepo "github.com/nclabs/communitybot/internal/repositories/audit"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
)

const (
	defaultTimeout = 30 * time.Second
	commandName    = "audit"
)

// Config holds configuration for the audit service
type Config struct {
	LLM        llm.Client
	AuditRepo  auditRepo.Repository
	MemberRepo memberRepo.Repository
	Clock      clock.Clock
	Logger     *logrus.Entry

	// Timeout bounds each model call; zero means the default
	Timeout time.Duration
}

// service implements the Service interface
type service struct {
	llm        llm.Client
	auditRepo  auditRepo.Repository
	memberRepo memberRepo.Repository
	clock      clock.Clock
	logger     *logrus.Entry
	timeout    time.Duration
}

// New creates a new audit service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.LLM == nil {
		return nil, errors.New("llm client cannot be nil")
	}
	if cfg.AuditRepo == nil {
		return nil, errors.New("audit repository cannot be nil")
	}
	if cfg.MemberRepo == nil {
		return nil, errors.New("member repository cannot be nil")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &service{
		llm:        cfg.LLM,
		auditRepo:  cfg.AuditRepo,
		memberRepo: cfg.MemberRepo,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		timeout:    timeout,
	}, nil
}

// Analyze sends the text to the model, parses the verdict, and logs the
// call in the background. The caller gets the verdict as soon as it is
// available; the audit row never delays or fails the response.
func (s *service) Analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	if input == nil || input.MemberID == 0 || input.Text == "" {
		return nil, errors.New("input, member ID and text cannot be empty")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Analyze this text: %s", input.Text)

	started := time.Now()
	resp, err := s.llm.Generate(callCtx, &llm.GenerateInput{Prompt: prompt})
	if err != nil {
		metrics.LLMCalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("compliance analysis failed: %w", err)
	}
	elapsed := time.Since(started)

	verdict := parseVerdict(resp.Text)
	if verdict.Rating == RatingUnknown {
		metrics.LLMCalls.WithLabelValues("fallback").Inc()
	} else {
		metrics.LLMCalls.WithLabelValues("ok").Inc()
	}

	// The audit trail is written after the fact. A failure here is an
	// observability gap, not a user-facing error.
	go s.writeAuditLog(input, prompt, resp, elapsed)

	return &AnalyzeOutput{Verdict: verdict}, nil
}

func (s *service) writeAuditLog(input *AnalyzeInput, prompt string, resp *llm.GenerateOutput, elapsed time.Duration) {
	// Detached from the request context: the row should land even when
	// the interaction has already been answered.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := s.clock.Now().UTC()

	if err := s.memberRepo.Upsert(ctx, &memberRepo.UpsertInput{
		DiscordID: input.MemberID,
		Username:  input.Username,
		SeenAt:    now,
	}); err != nil {
		s.logger.WithError(err).WithField("member_id", input.MemberID).
			Error("failed to upsert member for audit log")
		return
	}

	if err := s.auditRepo.Insert(ctx, &auditRepo.InsertInput{
		Log: &models.AuditLog{
			ID:           uuid.NewString(),
			MemberID:     input.MemberID,
			CommandName:  commandName,
			InputPrompt:  prompt,
			RawResponse:  resp.Text,
			TokensUsed:   resp.TokensUsed,
			ProcessingMS: elapsed.Milliseconds(),
			CreatedAt:    now,
		},
	}); err != nil {
		s.logger.WithError(err).WithField("member_id", input.MemberID).
			Error("failed to write audit log")
	}
}
