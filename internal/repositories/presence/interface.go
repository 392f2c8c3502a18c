package presence

import (
	"context"

	"github.com/nclabs/communitybot/internal/models"
)

// Repository defines the interface for presence session persistence
type Repository interface {
	// Open inserts a new open session row for a member
	Open(ctx context.Context, input *OpenInput) error

	// GetOpen retrieves a member's open session, if any
	GetOpen(ctx context.Context, input *GetOpenInput) (*models.PresenceSession, error)

	// Close sets a session's end timestamp and duration
	Close(ctx context.Context, input *CloseInput) error

	// CloseAllOpen closes every open session across all members,
	// computing each duration against the given time
	CloseAllOpen(ctx context.Context, input *CloseAllOpenInput) (*CloseAllOpenOutput, error)

	// ListOpenedSince retrieves sessions opened at or after a cutoff
	ListOpenedSince(ctx context.Context, input *ListOpenedSinceInput) (*ListSessionsOutput, error)

	// ListActiveInWindow retrieves sessions that overlap the window,
	// including sessions still open
	ListActiveInWindow(ctx context.Context, input *ListActiveInWindowInput) (*ListSessionsOutput, error)
}
