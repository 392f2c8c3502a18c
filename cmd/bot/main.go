package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nclabs/communitybot/internal/common/clock"
	"github.com/nclabs/communitybot/internal/config"
	"github.com/nclabs/communitybot/internal/database"
	"github.com/nclabs/communitybot/internal/handlers/dashboard"
	"github.com/nclabs/communitybot/internal/handlers/discord"
	"github.com/nclabs/communitybot/internal/llm"
	"github.com/nclabs/communitybot/internal/logging"
	activityRepo "github.com/nclabs/communitybot/internal/repositories/activity"
	auditRepo "github.com/nclabs/communitybot/internal/repositories/audit"
	memberRepo "github.com/nclabs/communitybot/internal/repositories/member"
	presenceRepo "github.com/nclabs/communitybot/internal/repositories/presence"
	ticketRepo "github.com/nclabs/communitybot/internal/repositories/ticket"
	activityService "github.com/nclabs/communitybot/internal/services/activity"
	auditService "github.com/nclabs/communitybot/internal/services/audit"
	engagementService "github.com/nclabs/communitybot/internal/services/engagement"
	presenceService "github.com/nclabs/communitybot/internal/services/presence"
	ticketService "github.com/nclabs/communitybot/internal/services/ticket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New("communitybot", cfg.LogLevel)

	// Durable store
	db, err := database.Open(&database.Config{DSN: cfg.DatabaseDSN})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.WithError(err).Fatal("failed to migrate database")
	}

	// Dashboard response cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	// Repositories
	members, err := memberRepo.NewGorm(&memberRepo.Config{DB: db})
	if err != nil {
		logger.WithError(err).Fatal("failed to create member repository")
	}
	events, err := activityRepo.NewGorm(&activityRepo.Config{DB: db})
	if err != nil {
		logger.WithError(err).Fatal("failed to create activity repository")
	}
	sessions, err := presenceRepo.NewGorm(&presenceRepo.Config{DB: db})
	if err != nil {
		logger.WithError(err).Fatal("failed to create presence repository")
	}
	tickets, err := ticketRepo.NewGorm(&ticketRepo.Config{DB: db})
	if err != nil {
		logger.WithError(err).Fatal("failed to create ticket repository")
	}
	auditLogs, err := auditRepo.NewGorm(&auditRepo.Config{DB: db})
	if err != nil {
		logger.WithError(err).Fatal("failed to create audit repository")
	}

	realClock := &clock.DefaultClock{}

	// Services
	activitySvc, err := activityService.New(&activityService.Config{
		MemberRepo:   members,
		ActivityRepo: events,
		Clock:        realClock,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create activity service")
	}

	presenceSvc, err := presenceService.New(&presenceService.Config{
		PresenceRepo: sessions,
		MemberRepo:   members,
		Clock:        realClock,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create presence service")
	}

	engagementSvc, err := engagementService.New(&engagementService.Config{
		ActivityRepo: events,
		MemberRepo:   members,
		Clock:        realClock,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create engagement service")
	}

	ticketSvc, err := ticketService.New(&ticketService.Config{
		TicketRepo: tickets,
		MemberRepo: members,
		Clock:      realClock,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create ticket service")
	}

	gemini, err := llm.NewGemini(context.Background(), &llm.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create gemini client")
	}

	auditSvc, err := auditService.New(&auditService.Config{
		LLM:        gemini,
		AuditRepo:  auditLogs,
		MemberRepo: members,
		Clock:      realClock,
		Logger:     logging.New("audit", cfg.LogLevel),
		Timeout:    cfg.GeminiTimeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create audit service")
	}

	// Dashboard
	cache, err := dashboard.NewCache(&dashboard.CacheConfig{
		Client: redisClient,
		TTL:    cfg.CacheTTL,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create dashboard cache")
	}

	dash, err := dashboard.New(&dashboard.Config{
		Addr:              cfg.DashboardAddr,
		AdminPassword:     cfg.AdminPassword,
		EngagementService: engagementSvc,
		PresenceService:   presenceSvc,
		Cache:             cache,
		Logger:            logging.New("dashboard", cfg.LogLevel),
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create dashboard server")
	}

	go func() {
		if err := dash.Start(); err != nil {
			logger.WithError(err).Fatal("dashboard server failed")
		}
	}()

	// Discord bot
	bot, err := discord.New(&discord.Config{
		Token:            cfg.DiscordToken,
		ApplicationID:    cfg.ApplicationID,
		GuildID:          cfg.GuildID,
		StaffRoleID:      cfg.StaffRoleID,
		TicketCategoryID: cfg.TicketCategoryID,
		IgnoredMemberIDs: cfg.IgnoredMemberIDs,
		Logger:           logging.New("discord", cfg.LogLevel),
		ActivityService:  activitySvc,
		PresenceService:  presenceSvc,
		TicketService:    ticketSvc,
		AuditService:     auditSvc,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create Discord bot")
	}

	if err := bot.Start(context.Background()); err != nil {
		logger.WithError(err).Fatal("failed to start Discord bot")
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := dash.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to stop dashboard server")
	}

	if err := bot.Stop(); err != nil {
		logger.WithError(err).Error("failed to stop bot")
	}

	logger.Info("bot has been shut down")
}
