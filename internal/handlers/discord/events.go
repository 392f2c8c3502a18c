package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nclabs/communitybot/internal/metrics"
	"github.com/nclabs/communitybot/internal/models"
	activityService "github.com/nclabs/communitybot/internal/services/activity"
	presenceService "github.com/nclabs/communitybot/internal/services/presence"
	ticketService "github.com/nclabs/communitybot/internal/services/ticket"
)

// eventTimeout bounds the store writes made for a single gateway event
const eventTimeout = 10 * time.Second

// handleMessageCreate records a message_sent event. Writes happen off
// the gateway goroutine and are best effort: a store failure is counted
// and logged, never retried.
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	memberID, err := parseSnowflake(m.Author.ID)
	if err != nil || b.ignored(memberID) {
		return
	}

	metrics.EventsHandled.WithLabelValues(string(models.ActivityMessageSent)).Inc()

	channelID, _ := parseSnowflake(m.ChannelID)
	username := m.Author.Username
	avatarURL := m.Author.AvatarURL("")
	messageID := m.ID
	content := m.Content

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.activityService.UpsertMember(ctx, &activityService.UpsertMemberInput{
			DiscordID: memberID,
			Username:  username,
			AvatarURL: &avatarURL,
		}); err != nil {
			b.storeError(err, "failed to upsert member on message")
			return
		}

		if err := b.activityService.Record(ctx, &activityService.RecordInput{
			MemberID:  memberID,
			Kind:      models.ActivityMessageSent,
			ChannelID: channelID,
			Metadata:  map[string]interface{}{"message_id": messageID},
		}); err != nil {
			b.storeError(err, "failed to record message event")
		}

		b.relayTicketMessage(ctx, channelID, memberID, content)
	}()
}

// relayTicketMessage copies a message into the ticket history when the
// channel is a ticket channel. Most channels are not, so a not-found
// lookup is the common path and is silently ignored.
func (b *Bot) relayTicketMessage(ctx context.Context, channelID, memberID int64, content string) {
	found, err := b.ticketService.GetByChannel(ctx, &ticketService.GetByChannelInput{
		ChannelID: channelID,
	})
	if err != nil {
		return
	}

	if err := b.ticketService.LogEvent(ctx, &ticketService.LogEventInput{
		TicketID:       found.ID,
		ActorID:        memberID,
		MessageContent: &content,
	}); err != nil {
		b.storeError(err, "failed to relay ticket message")
	}
}

// handleReactionAdd records a reaction_add event
func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	memberID, err := parseSnowflake(r.UserID)
	if err != nil || b.ignored(memberID) {
		return
	}
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		return
	}

	metrics.EventsHandled.WithLabelValues(string(models.ActivityReactionAdd)).Inc()

	channelID, _ := parseSnowflake(r.ChannelID)
	var username string
	var avatarURL *string
	if r.Member != nil && r.Member.User != nil {
		username = r.Member.User.Username
		if r.Member.User.Avatar != "" {
			url := r.Member.User.AvatarURL("")
			avatarURL = &url
		}
	}
	emoji := r.Emoji.Name

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		// Reaction payloads do not always carry member data; the upsert
		// still has to happen so the event row has a member to point at.
		// Absent fields leave the directory row as-is.
		if err := b.activityService.UpsertMember(ctx, &activityService.UpsertMemberInput{
			DiscordID: memberID,
			Username:  username,
			AvatarURL: avatarURL,
		}); err != nil {
			b.storeError(err, "failed to upsert member on reaction")
			return
		}

		if err := b.activityService.Record(ctx, &activityService.RecordInput{
			MemberID:  memberID,
			Kind:      models.ActivityReactionAdd,
			ChannelID: channelID,
			Metadata:  map[string]interface{}{"emoji": emoji},
		}); err != nil {
			b.storeError(err, "failed to record reaction event")
		}
	}()
}

// handleThreadCreate records a thread_create event for the thread owner
func (b *Bot) handleThreadCreate(s *discordgo.Session, t *discordgo.ThreadCreate) {
	memberID, err := parseSnowflake(t.OwnerID)
	if err != nil || b.ignored(memberID) {
		return
	}

	metrics.EventsHandled.WithLabelValues(string(models.ActivityThreadCreate)).Inc()

	threadID, _ := parseSnowflake(t.ID)
	threadName := t.Name
	username := memberUsername(s, t.GuildID, t.OwnerID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.activityService.UpsertMember(ctx, &activityService.UpsertMemberInput{
			DiscordID: memberID,
			Username:  username,
		}); err != nil {
			b.storeError(err, "failed to upsert thread owner")
			return
		}

		if err := b.activityService.Record(ctx, &activityService.RecordInput{
			MemberID:  memberID,
			Kind:      models.ActivityThreadCreate,
			ChannelID: threadID,
			Metadata:  map[string]interface{}{"thread_name": threadName},
		}); err != nil {
			b.storeError(err, "failed to record thread event")
		}
	}()
}

// handlePresenceUpdate feeds one status change into the session tracker.
// The member row is refreshed first: a presence update can be the first
// event ever observed for a member, and session rows require one.
func (b *Bot) handlePresenceUpdate(s *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.User == nil {
		return
	}

	memberID, err := parseSnowflake(p.User.ID)
	if err != nil || b.ignored(memberID) {
		return
	}

	metrics.EventsHandled.WithLabelValues("presence_update").Inc()

	status := string(p.Status)
	username := p.User.Username
	if username == "" {
		username = memberUsername(s, p.GuildID, p.User.ID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.activityService.UpsertMember(ctx, &activityService.UpsertMemberInput{
			DiscordID: memberID,
			Username:  username,
		}); err != nil {
			b.storeError(err, "failed to upsert member on presence update")
			return
		}

		err := b.presenceService.HandleTransition(ctx, &presenceService.TransitionInput{
			MemberID: memberID,
			Status:   status,
		})
		switch {
		case err == nil:
		case errors.Is(err, presenceService.ErrRecoveryPending):
			b.logger.WithField("member_id", memberID).
				Warn("dropping presence update, recovery still running")
		case errors.Is(err, presenceService.ErrUnknownStatus):
			b.logger.WithField("status", status).Debug("unknown presence status")
		default:
			b.storeError(err, "failed to apply presence transition")
		}
	}()
}

// handleMemberAdd records a zero-weight member_join event and seeds the
// directory row with the guild join date
func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	memberID, err := parseSnowflake(m.User.ID)
	if err != nil || b.ignored(memberID) {
		return
	}

	metrics.EventsHandled.WithLabelValues(string(models.ActivityMemberJoin)).Inc()

	username := m.User.Username
	avatarURL := m.User.AvatarURL("")
	joined := m.JoinedAt

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.activityService.UpsertMember(ctx, &activityService.UpsertMemberInput{
			DiscordID:     memberID,
			Username:      username,
			AvatarURL:     &avatarURL,
			GuildJoinDate: &joined,
		}); err != nil {
			b.storeError(err, "failed to upsert joining member")
			return
		}

		if err := b.activityService.Record(ctx, &activityService.RecordInput{
			MemberID: memberID,
			Kind:     models.ActivityMemberJoin,
		}); err != nil {
			b.storeError(err, "failed to record member join")
		}
	}()
}

// handleMemberRemove records a zero-weight member_leave event
func (b *Bot) handleMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || m.User.Bot {
		return
	}

	memberID, err := parseSnowflake(m.User.ID)
	if err != nil || b.ignored(memberID) {
		return
	}

	metrics.EventsHandled.WithLabelValues(string(models.ActivityMemberLeave)).Inc()

	username := m.User.Username

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.activityService.UpsertMember(ctx, &activityService.UpsertMemberInput{
			DiscordID: memberID,
			Username:  username,
		}); err != nil {
			b.storeError(err, "failed to upsert leaving member")
			return
		}

		if err := b.activityService.Record(ctx, &activityService.RecordInput{
			MemberID: memberID,
			Kind:     models.ActivityMemberLeave,
		}); err != nil {
			b.storeError(err, "failed to record member leave")
		}
	}()
}

// memberUsername resolves a username from the session state cache.
// Returns "" when the member is not cached; the directory row keeps
// whatever name it already has.
func memberUsername(s *discordgo.Session, guildID, userID string) string {
	if s == nil || s.State == nil {
		return ""
	}
	member, err := s.State.Member(guildID, userID)
	if err != nil || member.User == nil {
		return ""
	}
	return member.User.Username
}

func (b *Bot) storeError(err error, msg string) {
	metrics.StoreErrors.Inc()
	b.logger.WithError(err).Error(msg)
}
