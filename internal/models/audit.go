package models

import (
	"time"
)

// AuditLog records one successful LLM compliance call. Failed calls are
// never logged; the row is written fire-and-forget after the user has
// been answered.
type AuditLog struct {
	// ID is a UUID assigned by the service before insert
	ID string `gorm:"primaryKey;type:varchar(36)"`

	MemberID int64  `gorm:"not null;index"`
	Member   Member `gorm:"foreignKey:MemberID;references:DiscordID;constraint:OnDelete:RESTRICT"`

	// CommandName is the slash command that triggered the call
	CommandName string `gorm:"not null"`

	InputPrompt string `gorm:"type:text;not null"`

	// RawResponse is the verbatim model output, stored even when it
	// failed to parse as a verdict
	RawResponse string `gorm:"type:text"`

	TokensUsed int

	ProcessingMS int64

	CreatedAt time.Time `gorm:"not null"`
}
