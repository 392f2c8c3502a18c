package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	auditService "github.com/nclabs/communitybot/internal/services/audit"
)

// ratingStyle maps a verdict rating to its embed presentation
type ratingStyle struct {
	title string
	color int
}

var ratingStyles = map[auditService.Rating]ratingStyle{
	auditService.RatingGreen:  {title: "✅ No Issues Detected", color: 0x57f287},
	auditService.RatingYellow: {title: "⚠️ Monitor — Potential Concern", color: 0xfee75c},
	auditService.RatingRed:    {title: "🚨 Action Needed", color: 0xed4245},
}

var defaultRatingStyle = ratingStyle{title: "🔍 Analysis Complete", color: 0x95a5a6}

// AuditCommand implements the /audit slash command
type AuditCommand struct {
	BaseCommand
	auditService auditService.Service
}

// NewAuditCommand creates a new audit command handler
func NewAuditCommand(svc auditService.Service) *AuditCommand {
	return &AuditCommand{
		BaseCommand: BaseCommand{
			Name:        "audit",
			Description: "Analyze text for compliance risks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "The text to analyze for policy violations or risks",
					Required:    true,
				},
			},
		},
		auditService: svc,
	}
}

// Handle processes the /audit interaction. The model call can take
// seconds, well past the 3 second interaction deadline, so the response
// is deferred and delivered as an ephemeral follow-up.
func (c *AuditCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	if user == nil {
		return nil
	}

	memberID, err := parseSnowflake(user.ID)
	if err != nil {
		return RespondWithError(s, i, "Could not identify you.")
	}

	var text string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "text" {
			text = opt.StringValue()
		}
	}
	if text == "" {
		return RespondWithError(s, i, "Nothing to analyze.")
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		return err
	}

	out, err := c.auditService.Analyze(context.Background(), &auditService.AnalyzeInput{
		MemberID: memberID,
		Username: user.Username,
		Text:     text,
	})
	if err != nil {
		return FollowUpWithEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "Analysis Failed",
			Description: "The compliance model could not be reached. Try again in a moment.",
			Color:       0xed4245,
		})
	}

	style, ok := ratingStyles[out.Verdict.Rating]
	if !ok {
		style = defaultRatingStyle
	}

	return FollowUpWithEmbed(s, i, &discordgo.MessageEmbed{
		Title:       style.title,
		Description: out.Verdict.Summary,
		Color:       style.color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Analyzed by Gemini | /audit",
		},
	})
}
