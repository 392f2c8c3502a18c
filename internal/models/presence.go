package models

import (
	"time"
)

// PresenceStatus is the status label a session carries at open time.
// "offline" is a reserved sentinel on the wire and never appears on a
// stored session.
type PresenceStatus string

const (
	PresenceOnline PresenceStatus = "online"
	PresenceIdle   PresenceStatus = "idle"
	PresenceDND    PresenceStatus = "dnd"
)

// PresenceSession is one continuous interval a member spent in a single
// non-offline status. A nil EndedAt means the session is still open; at
// most one session per member may be open at any time.
type PresenceSession struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	MemberID int64  `gorm:"not null;index"`
	Member   Member `gorm:"foreignKey:MemberID;references:DiscordID;constraint:OnDelete:RESTRICT"`

	Status PresenceStatus `gorm:"type:varchar(16);not null"`

	StartedAt time.Time `gorm:"not null;index"`

	EndedAt *time.Time `gorm:"index"`

	// DurationSeconds = EndedAt - StartedAt in whole seconds, populated
	// exactly when EndedAt is set
	DurationSeconds *int64
}
