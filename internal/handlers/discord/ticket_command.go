package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	ticketRepo "github.com/nclabs/communitybot/internal/repositories/ticket"
	ticketService "github.com/nclabs/communitybot/internal/services/ticket"
)

const ticketChannelPerms = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// promptTicketModal opens the subject form when the Open Ticket button
// is clicked
func (b *Bot) promptTicketModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: ModalOpenTicket,
			Title:    "Open a Support Ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "subject",
							Label:       "What do you need help with?",
							Placeholder: "Briefly describe your issue...",
							Style:       discordgo.TextInputShort,
							Required:    true,
							MinLength:   5,
							MaxLength:   255,
						},
					},
				},
			},
		},
	})
}

// openTicketFromModal handles the subject form submission
func (b *Bot) openTicketFromModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var subject string
	for _, row := range i.ModalSubmitData().Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == "subject" {
				subject = input.Value
			}
		}
	}
	if subject == "" {
		return RespondWithError(s, i, "A subject is required to open a ticket.")
	}

	return openTicketFlow(s, i, b.ticketService, b.config, subject)
}

// openTicketFlow creates the private channel, the ticket row and the
// greeting message. Shared between the /help command and the Open
// Ticket button.
func openTicketFlow(s *discordgo.Session, i *discordgo.InteractionCreate, svc ticketService.Service, cfg *Config, subject string) error {
	user := interactionUser(i)
	if user == nil || i.GuildID == "" {
		return RespondWithEphemeralMessage(s, i, "Tickets can only be opened inside the server.")
	}

	if cfg.StaffRoleID == "" {
		return RespondWithEphemeralMessage(s, i, "Ticket system is not configured. Please contact an administrator.")
	}

	authorID, err := parseSnowflake(user.ID)
	if err != nil {
		return RespondWithError(s, i, "Could not identify you.")
	}

	// Channel creation plus the store writes can exceed the interaction
	// deadline.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		return err
	}

	followUp := func(msg string) error {
		_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return err
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{
			// The @everyone role shares the guild's ID.
			ID:   i.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    s.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketChannelPerms | discordgo.PermissionManageChannels,
		},
		{
			ID:    user.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketChannelPerms,
		},
		{
			ID:    cfg.StaffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: ticketChannelPerms | discordgo.PermissionManageChannels,
		},
	}

	channelName := "ticket-" + strings.ToLower(strings.ReplaceAll(user.Username, " ", "-"))
	channel, err := s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 channelName,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             cfg.TicketCategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return followUp("Could not create a ticket channel. Please contact an administrator.")
	}

	channelID, err := parseSnowflake(channel.ID)
	if err != nil {
		return followUp("Could not create a ticket channel. Please contact an administrator.")
	}

	created, err := svc.Create(context.Background(), &ticketService.CreateInput{
		AuthorID:  authorID,
		Username:  user.Username,
		ChannelID: channelID,
		Subject:   subject,
	})
	if err != nil {
		// The channel exists but the ticket row does not; remove the
		// channel so /close cannot strand it.
		_, _ = s.ChannelDelete(channel.ID)
		return followUp("Something went wrong while opening your ticket. Please try again.")
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Ticket #%d: %s", created.ID, subject),
		Description: fmt.Sprintf(
			"Hello <@%s>, a staff member will be with you shortly.\n\n"+
				"**Subject:** %s\n**Status:** Open\n\n"+
				"When resolved, staff will run `/close` to close this ticket.",
			user.ID, subject,
		),
		Color: 0x57f287,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Opened by %s | ID: %s", user.Username, user.ID),
		},
	}
	_, _ = s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> <@&%s>", user.ID, cfg.StaffRoleID),
		Embeds:  []*discordgo.MessageEmbed{embed},
	})

	return followUp(fmt.Sprintf("Your ticket has been opened! Head to <#%s>", channel.ID))
}

// HelpCommand implements the /help slash command
type HelpCommand struct {
	BaseCommand
	ticketService ticketService.Service
	config        *Config
}

// NewHelpCommand creates a new help command handler
func NewHelpCommand(svc ticketService.Service, cfg *Config) *HelpCommand {
	return &HelpCommand{
		BaseCommand: BaseCommand{
			Name:        "help",
			Description: "Open a support ticket",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "subject",
					Description: "Briefly describe your issue",
					Required:    true,
				},
			},
		},
		ticketService: svc,
		config:        cfg,
	}
}

// Handle processes the /help interaction
func (c *HelpCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var subject string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "subject" {
			subject = opt.StringValue()
		}
	}
	if subject == "" {
		return RespondWithError(s, i, "A subject is required to open a ticket.")
	}

	return openTicketFlow(s, i, c.ticketService, c.config, subject)
}

// CloseCommand implements the /close slash command
type CloseCommand struct {
	BaseCommand
	ticketService ticketService.Service
}

// NewCloseCommand creates a new close command handler
func NewCloseCommand(svc ticketService.Service) *CloseCommand {
	return &CloseCommand{
		BaseCommand: BaseCommand{
			Name:        "close",
			Description: "Close the current ticket channel",
		},
		ticketService: svc,
	}
}

// Handle processes the /close interaction. It only works inside a
// ticket channel; the channel is deleted a few seconds after the
// ticket is resolved.
func (c *CloseCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return nil
	}

	actorID, err := parseSnowflake(user.ID)
	if err != nil {
		return RespondWithError(s, i, "Could not identify you.")
	}

	channelID, err := parseSnowflake(i.ChannelID)
	if err != nil {
		return RespondWithError(s, i, "Could not identify this channel.")
	}

	resolved, err := c.ticketService.Resolve(context.Background(), &ticketService.ResolveInput{
		ChannelID: channelID,
		ActorID:   actorID,
	})
	switch {
	case errors.Is(err, ticketRepo.ErrTicketNotFound):
		return RespondWithEphemeralMessage(s, i, "This command can only be used inside a ticket channel.")
	case errors.Is(err, ticketService.ErrTicketAlreadyClosed):
		return RespondWithEphemeralMessage(s, i, "This ticket is already closed.")
	case err != nil:
		return RespondWithError(s, i, "Failed to resolve the ticket. Please try again.")
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Ticket #%d resolved by <@%s>. This channel will be deleted in 5 seconds.",
				resolved.ID, user.ID),
		},
	}); err != nil {
		return err
	}

	ticketChannelID := i.ChannelID
	time.AfterFunc(5*time.Second, func() {
		_, _ = s.ChannelDelete(ticketChannelID)
	})

	return nil
}

// SetupTicketsCommand implements the admin-only /setup-tickets command,
// which posts the persistent Open Ticket button in the current channel
type SetupTicketsCommand struct {
	BaseCommand
}

// NewSetupTicketsCommand creates a new setup-tickets command handler
func NewSetupTicketsCommand() *SetupTicketsCommand {
	return &SetupTicketsCommand{
		BaseCommand: BaseCommand{
			Name:        "setup-tickets",
			Description: "Post the Open Ticket button in this channel",
		},
	}
}

// GetCommand returns the application command definition, restricted to
// administrators
func (c *SetupTicketsCommand) GetCommand() *discordgo.ApplicationCommand {
	cmd := c.BaseCommand.GetCommand()
	adminOnly := int64(discordgo.PermissionAdministrator)
	cmd.DefaultMemberPermissions = &adminOnly
	return cmd
}

// Handle posts the ticket prompt with its persistent button
func (c *SetupTicketsCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title: "NCL Support",
				Description: "Need help? Click the button below to open a private support ticket.\n" +
					"A staff member will respond as soon as possible.",
				Color: 0x5865f2,
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Open Ticket",
						Style:    discordgo.PrimaryButton,
						CustomID: ButtonOpenTicket,
						Emoji: &discordgo.ComponentEmoji{
							Name: "🎫",
						},
					},
				},
			},
		},
	})
	if err != nil {
		return RespondWithError(s, i, "Could not post the ticket prompt here.")
	}

	return RespondWithEphemeralMessage(s, i, "Ticket prompt posted.")
}
