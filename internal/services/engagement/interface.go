package engagement

import (
	"context"
)

// Service answers read-time questions over the activity ledger
type Service interface {
	// WeeklyScores returns sparse per-day score series for the current
	// and prior seven days
	WeeklyScores(ctx context.Context) (*WeeklyScoresOutput, error)

	// RisingStars ranks members by trailing-seven-day score
	RisingStars(ctx context.Context, input *RisingStarsInput) (*RisingStarsOutput, error)

	// ChurnRisks lists recently active members who have since gone
	// silent, ranked by whole days of silence
	ChurnRisks(ctx context.Context, input *ChurnRisksInput) (*ChurnRisksOutput, error)
}
