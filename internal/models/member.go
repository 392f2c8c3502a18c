package models

import (
	"time"
)

// Member represents a Discord member who has been observed at least once.
// It is the foreign-key anchor for activity events, presence sessions,
// tickets and audit logs.
type Member struct {
	// DiscordID is the immutable snowflake assigned by Discord
	DiscordID int64 `gorm:"primaryKey;autoIncrement:false"`

	// Username is the display name at the time of the last upsert
	Username string `gorm:"not null"`

	// AvatarURL is the CDN URL of the member's avatar, nil when unset
	AvatarURL *string

	// IsStaff is maintained manually, never derived from Discord roles
	IsStaff bool `gorm:"not null;default:false"`

	// GuildJoinDate is nil for members whose join predates tracking
	GuildJoinDate *time.Time

	// FirstSeenAt is set once, on the first event that created the row
	FirstSeenAt time.Time `gorm:"not null"`

	// LastSeenAt advances on every upsert
	LastSeenAt time.Time `gorm:"not null;index"`
}
