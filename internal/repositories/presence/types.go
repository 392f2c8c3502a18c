package presence

import (
	"time"

	"github.com/nclabs/communitybot/internal/models"
)

// OpenInput contains parameters for opening a session
type OpenInput struct {
	MemberID  int64
	Status    models.PresenceStatus
	StartedAt time.Time
}

// GetOpenInput contains parameters for finding a member's open session
type GetOpenInput struct {
	MemberID int64
}

// CloseInput contains parameters for closing a session
type CloseInput struct {
	SessionID       int64
	EndedAt         time.Time
	DurationSeconds int64
}

// CloseAllOpenInput contains parameters for the startup sweep
type CloseAllOpenInput struct {
	ClosedAt time.Time
}

// CloseAllOpenOutput reports how many stale sessions were closed
type CloseAllOpenOutput struct {
	Closed int
}

// ListOpenedSinceInput contains parameters for a window read by open time
type ListOpenedSinceInput struct {
	Since time.Time
}

// ListActiveInWindowInput contains parameters for an overlap read
type ListActiveInWindowInput struct {
	Since time.Time
}

// ListSessionsOutput contains the result of a session range read
type ListSessionsOutput struct {
	Sessions []*models.PresenceSession
}
