package member

import (
	"time"

	"github.com/nclabs/communitybot/internal/models"
)

// UpsertInput contains parameters for creating or refreshing a member.
// Username, AvatarURL and GuildJoinDate are only written when present;
// an existing value is never cleared.
type UpsertInput struct {
	DiscordID int64
	Username  string
	AvatarURL *string

	GuildJoinDate *time.Time

	// SeenAt becomes last_seen_at, and first_seen_at on first insert
	SeenAt time.Time
}

// GetInput contains parameters for retrieving a member
type GetInput struct {
	DiscordID int64
}

// ListByIDsInput contains parameters for retrieving a set of members
type ListByIDsInput struct {
	DiscordIDs []int64
}

// ListByIDsOutput contains the result of retrieving a set of members
type ListByIDsOutput struct {
	Members []*models.Member
}
