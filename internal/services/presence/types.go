package presence

import (
	"time"
)

// RecoverOutput reports how many stale sessions the startup sweep closed
type RecoverOutput struct {
	Closed int
}

// TransitionInput contains one presence status change as delivered by
// the gateway. Status is the raw wire value; "offline" is the reserved
// sentinel that closes a session.
type TransitionInput struct {
	MemberID int64
	Status   string
}

// StatsInput contains parameters for the session summary
type StatsInput struct {
	Days int
}

// StatsOutput summarizes sessions opened within the window
type StatsOutput struct {
	// AverageDurationSeconds is computed over closed sessions only
	AverageDurationSeconds int64 `json:"average_duration_seconds"`

	// TotalSessions includes sessions still open
	TotalSessions int `json:"total_sessions"`

	DistinctMembers int `json:"distinct_members"`
}

// PeakHoursInput contains parameters for the clock-hour histogram
type PeakHoursInput struct {
	Days int
}

// PeakHoursOutput holds one bucket per UTC clock hour: the average
// number of members online during that hour across the window
type PeakHoursOutput struct {
	Buckets [24]float64 `json:"buckets"`
}

// TopMembersInput contains parameters for the online-time ranking
type TopMembersInput struct {
	Limit int
	Days  int
}

// MemberPresence is one entry in the online-time ranking
type MemberPresence struct {
	DiscordID    int64  `json:"discord_id"`
	Username     string `json:"username"`
	TotalSeconds int64  `json:"total_seconds"`
}

// TopMembersOutput contains the online-time ranking
type TopMembersOutput struct {
	Members []*MemberPresence `json:"members"`
}

// windowStart returns the cutoff for a trailing window of whole days
func windowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
