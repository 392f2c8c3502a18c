package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityKind identifies the category of a recorded member action.
type ActivityKind string

const (
	ActivityMessageSent  ActivityKind = "message_sent"
	ActivityReactionAdd  ActivityKind = "reaction_add"
	ActivityThreadCreate ActivityKind = "thread_create"
	ActivityMemberJoin   ActivityKind = "member_join"
	ActivityMemberLeave  ActivityKind = "member_leave"
)

// ActivityEvent is one immutable row in the engagement ledger. Rows are
// never updated or deleted; scores are computed at read time by summing
// PointsValue.
type ActivityEvent struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// MemberID references Member.DiscordID
	MemberID int64  `gorm:"not null;index"`
	Member   Member `gorm:"foreignKey:MemberID;references:DiscordID;constraint:OnDelete:RESTRICT"`

	Kind ActivityKind `gorm:"type:varchar(32);not null;index"`

	// ChannelID is 0 for membership events, which have no origin channel
	ChannelID int64 `gorm:"not null"`

	// PointsValue is stored at 2x scale so the half-point reaction
	// weight fits in an integer column. Score = SUM(points_value) / 2.
	PointsValue int `gorm:"not null"`

	// Metadata carries event-specific context such as the message id
	Metadata datatypes.JSON

	CreatedAt time.Time `gorm:"not null;index"`
}
