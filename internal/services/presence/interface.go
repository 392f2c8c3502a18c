package presence

import (
	"context"
)

// Service tracks continuous online time as session intervals and
// answers read-time questions about them.
type Service interface {
	// Recover closes every session left open by a prior run. It must
	// complete before any transition is accepted.
	Recover(ctx context.Context) (*RecoverOutput, error)

	// HandleTransition applies one presence status change for a member
	HandleTransition(ctx context.Context, input *TransitionInput) error

	// Stats summarizes sessions opened within the trailing window
	Stats(ctx context.Context, input *StatsInput) (*StatsOutput, error)

	// PeakHours computes the average number of members online per UTC
	// clock hour across the trailing window
	PeakHours(ctx context.Context, input *PeakHoursInput) (*PeakHoursOutput, error)

	// TopMembers ranks members by closed-session time in the window
	TopMembers(ctx context.Context, input *TopMembersInput) (*TopMembersOutput, error)
}
