package activity

import (
	"time"

	"github.com/nclabs/communitybot/internal/models"
)

// UpsertMemberInput contains parameters for refreshing a member row
type UpsertMemberInput struct {
	DiscordID     int64
	Username      string
	AvatarURL     *string
	GuildJoinDate *time.Time
}

// RecordInput contains parameters for appending a ledger event
type RecordInput struct {
	MemberID int64
	Kind     models.ActivityKind

	// ChannelID is 0 for membership events
	ChannelID int64

	// Metadata carries event-specific context such as the message id
	Metadata map[string]interface{}
}
