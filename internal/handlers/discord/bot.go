package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	activityService "github.com/nclabs/communitybot/internal/services/activity"
	auditService "github.com/nclabs/communitybot/internal/services/audit"
	presenceService "github.com/nclabs/communitybot/internal/services/presence"
	ticketService "github.com/nclabs/communitybot/internal/services/ticket"
)

// Component custom IDs
const (
	ButtonOpenTicket = "open_ticket"
	ModalOpenTicket  = "open_ticket_modal"
)

// Bot represents the Discord bot instance
type Bot struct {
	session    *discordgo.Session
	commands   map[string]CommandHandler
	commandIDs map[string]string // Maps command name to command ID
	config     *Config
	logger     *logrus.Entry

	activityService activityService.Service
	presenceService presenceService.Service
	ticketService   ticketService.Service
	auditService    auditService.Service
}

// Config holds the configuration for the bot
type Config struct {
	// Discord bot token
	Token string

	// Application ID for the bot
	ApplicationID string

	// Optional guild ID for development (server-specific commands)
	GuildID string

	// Role granted access to every ticket channel; ticketing commands
	// are not registered when empty
	StaffRoleID string

	// Optional category the ticket channels are created under
	TicketCategoryID string

	// Members excluded from all tracking
	IgnoredMemberIDs map[int64]struct{}

	Logger *logrus.Entry

	ActivityService activityService.Service
	PresenceService presenceService.Service
	TicketService   ticketService.Service
	AuditService    auditService.Service
}

// New creates a new Discord bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Token == "" {
		return nil, errors.New("token cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ActivityService == nil {
		return nil, errors.New("activity service cannot be nil")
	}
	if cfg.PresenceService == nil {
		return nil, errors.New("presence service cannot be nil")
	}
	if cfg.TicketService == nil {
		return nil, errors.New("ticket service cannot be nil")
	}
	if cfg.AuditService == nil {
		return nil, errors.New("audit service cannot be nil")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Presence and member events are privileged intents; both must be
	// enabled for the application in the developer portal.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsMessageContent

	bot := &Bot{
		session:         session,
		commands:        make(map[string]CommandHandler),
		commandIDs:      make(map[string]string),
		config:          cfg,
		logger:          cfg.Logger,
		activityService: cfg.ActivityService,
		presenceService: cfg.PresenceService,
		ticketService:   cfg.TicketService,
		auditService:    cfg.AuditService,
	}

	session.AddHandler(bot.handleInteraction)
	session.AddHandler(bot.handleMessageCreate)
	session.AddHandler(bot.handleReactionAdd)
	session.AddHandler(bot.handleThreadCreate)
	session.AddHandler(bot.handlePresenceUpdate)
	session.AddHandler(bot.handleMemberAdd)
	session.AddHandler(bot.handleMemberRemove)

	return bot, nil
}

// Start initializes the Discord connection and registers commands.
// Stale presence sessions are swept before the gateway connection
// opens; transitions arriving before the sweep would be rejected.
func (b *Bot) Start(ctx context.Context) error {
	recovered, err := b.presenceService.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover presence sessions: %w", err)
	}
	if recovered.Closed > 0 {
		b.logger.WithField("closed", recovered.Closed).Info("closed stale presence sessions")
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	cmds := []CommandHandler{
		NewAuditCommand(b.auditService),
	}
	if b.config.StaffRoleID != "" {
		cmds = append(cmds,
			NewHelpCommand(b.ticketService, b.config),
			NewCloseCommand(b.ticketService),
			NewSetupTicketsCommand(),
		)
	} else {
		b.logger.Warn("STAFF_ROLE_ID not set, ticket commands disabled")
	}

	for _, cmd := range cmds {
		if err := b.RegisterCommand(cmd); err != nil {
			return fmt.Errorf("failed to register %s command: %w", cmd.GetName(), err)
		}
	}

	b.logger.Info("bot is now running")
	return nil
}

// Stop gracefully shuts down the Discord connection
func (b *Bot) Stop() error {
	appID := b.config.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	for cmdName, cmdID := range b.commandIDs {
		if err := b.session.ApplicationCommandDelete(appID, b.config.GuildID, cmdID); err != nil {
			b.logger.WithError(err).WithField("command", cmdName).Error("failed to delete command")
		}
	}

	return b.session.Close()
}

// RegisterCommand registers a command with Discord
func (b *Bot) RegisterCommand(cmd CommandHandler) error {
	appID := b.config.ApplicationID
	if appID == "" {
		// Fall back to session user ID if application ID is not provided
		appID = b.session.State.User.ID
	}

	// Guild-scoped commands propagate instantly, which is what you want
	// during development; global commands can take up to an hour.
	createdCmd, err := b.session.ApplicationCommandCreate(appID, b.config.GuildID, cmd.GetCommand())
	if err != nil {
		return fmt.Errorf("failed to create command %s: %w", cmd.GetName(), err)
	}

	b.commands[cmd.GetName()] = cmd
	b.commandIDs[cmd.GetName()] = createdCmd.ID
	b.logger.WithFields(logrus.Fields{
		"command": cmd.GetName(),
		"id":      createdCmd.ID,
	}).Info("registered command")

	return nil
}

// handleInteraction handles Discord interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if h, ok := b.commands[i.ApplicationCommandData().Name]; ok {
			if err := h.Handle(s, i); err != nil {
				b.logger.WithError(err).WithField("command", i.ApplicationCommandData().Name).
					Error("failed to handle command")
			}
		}
	case discordgo.InteractionMessageComponent:
		if err := b.handleComponentInteraction(s, i); err != nil {
			b.logger.WithError(err).Error("failed to handle component interaction")
		}
	case discordgo.InteractionModalSubmit:
		if err := b.handleModalSubmit(s, i); err != nil {
			b.logger.WithError(err).Error("failed to handle modal submit")
		}
	}
}

// handleComponentInteraction handles button clicks and other component interactions
func (b *Bot) handleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	switch i.MessageComponentData().CustomID {
	case ButtonOpenTicket:
		return b.promptTicketModal(s, i)
	default:
		return RespondWithError(s, i, fmt.Sprintf("Unknown component: %s", i.MessageComponentData().CustomID))
	}
}

// handleModalSubmit handles modal form submissions
func (b *Bot) handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	switch i.ModalSubmitData().CustomID {
	case ModalOpenTicket:
		return b.openTicketFromModal(s, i)
	default:
		return RespondWithError(s, i, fmt.Sprintf("Unknown modal: %s", i.ModalSubmitData().CustomID))
	}
}

// ignored reports whether a member is excluded from tracking
func (b *Bot) ignored(memberID int64) bool {
	_, ok := b.config.IgnoredMemberIDs[memberID]
	return ok
}

// parseSnowflake converts a Discord ID string to the stored int64 form
func parseSnowflake(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
