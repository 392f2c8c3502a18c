package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	engagementService "github.com/nclabs/communitybot/internal/services/engagement"
	presenceService "github.com/nclabs/communitybot/internal/services/presence"
)

const (
	defaultWindowDays = 7
	defaultLimit      = 10

	authHeader = "X-Admin-Password"
)

// Config holds configuration for the dashboard server
type Config struct {
	Addr string

	// AdminPassword guards the API routes; empty disables the check
	AdminPassword string

	EngagementService engagementService.Service
	PresenceService   presenceService.Service
	Cache             *Cache
	Logger            *logrus.Entry
}

// Server is the read-only JSON API behind the community dashboard
type Server struct {
	engagementService engagementService.Service
	presenceService   presenceService.Service
	cache             *Cache
	logger            *logrus.Entry
	adminPassword     string

	httpServer *http.Server
}

// New creates a new dashboard server
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Addr == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	if cfg.EngagementService == nil {
		return nil, errors.New("engagement service cannot be nil")
	}
	if cfg.PresenceService == nil {
		return nil, errors.New("presence service cannot be nil")
	}
	if cfg.Cache == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	s := &Server{
		engagementService: cfg.EngagementService,
		presenceService:   cfg.PresenceService,
		cache:             cfg.Cache,
		logger:            cfg.Logger,
		adminPassword:     cfg.AdminPassword,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api", s.requireAdmin)
	api.GET("/engagement/weekly", s.handleWeekly)
	api.GET("/engagement/rising-stars", s.handleRisingStars)
	api.GET("/engagement/churn-risks", s.handleChurnRisks)
	api.GET("/presence/stats", s.handlePresenceStats)
	api.GET("/presence/peak-hours", s.handlePeakHours)
	api.GET("/presence/top-members", s.handleTopMembers)

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	return s, nil
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("dashboard listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route tree for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// requireAdmin rejects API requests without the configured password
func (s *Server) requireAdmin(c *gin.Context) {
	if s.adminPassword == "" {
		return
	}
	if c.GetHeader(authHeader) != s.adminPassword {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

// respondCached serves a cached payload when one exists, otherwise
// computes the response, caches it and serves it. Cache write failures
// are logged and the response served anyway.
func (s *Server) respondCached(c *gin.Context, key string, fetch func(ctx context.Context) (interface{}, error)) {
	ctx := c.Request.Context()

	if payload, ok := s.cache.Get(ctx, key); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	result, err := fetch(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("dashboard read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to cache dashboard response")
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func (s *Server) handleWeekly(c *gin.Context) {
	s.respondCached(c, "dash:engagement:weekly", func(ctx context.Context) (interface{}, error) {
		return s.engagementService.WeeklyScores(ctx)
	})
}

func (s *Server) handleRisingStars(c *gin.Context) {
	limit := queryInt(c, "limit", defaultLimit)
	key := fmt.Sprintf("dash:engagement:rising-stars:%d", limit)
	s.respondCached(c, key, func(ctx context.Context) (interface{}, error) {
		return s.engagementService.RisingStars(ctx, &engagementService.RisingStarsInput{
			Limit: limit,
		})
	})
}

func (s *Server) handleChurnRisks(c *gin.Context) {
	activeWindow := queryInt(c, "active_window", 0)
	silentThreshold := queryInt(c, "silent_threshold", 0)
	limit := queryInt(c, "limit", 0)
	key := fmt.Sprintf("dash:engagement:churn-risks:%d:%d:%d", activeWindow, silentThreshold, limit)
	s.respondCached(c, key, func(ctx context.Context) (interface{}, error) {
		return s.engagementService.ChurnRisks(ctx, &engagementService.ChurnRisksInput{
			ActiveWindowDays:    activeWindow,
			SilentThresholdDays: silentThreshold,
			Limit:               limit,
		})
	})
}

func (s *Server) handlePresenceStats(c *gin.Context) {
	days := queryInt(c, "days", defaultWindowDays)
	key := fmt.Sprintf("dash:presence:stats:%d", days)
	s.respondCached(c, key, func(ctx context.Context) (interface{}, error) {
		return s.presenceService.Stats(ctx, &presenceService.StatsInput{Days: days})
	})
}

func (s *Server) handlePeakHours(c *gin.Context) {
	days := queryInt(c, "days", defaultWindowDays)
	key := fmt.Sprintf("dash:presence:peak-hours:%d", days)
	s.respondCached(c, key, func(ctx context.Context) (interface{}, error) {
		return s.presenceService.PeakHours(ctx, &presenceService.PeakHoursInput{Days: days})
	})
}

func (s *Server) handleTopMembers(c *gin.Context) {
	days := queryInt(c, "days", defaultWindowDays)
	limit := queryInt(c, "limit", defaultLimit)
	key := fmt.Sprintf("dash:presence:top-members:%d:%d", days, limit)
	s.respondCached(c, key, func(ctx context.Context) (interface{}, error) {
		return s.presenceService.TopMembers(ctx, &presenceService.TopMembersInput{
			Days:  days,
			Limit: limit,
		})
	})
}

// queryInt reads a positive integer query parameter with a fallback
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
