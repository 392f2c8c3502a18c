package activity

import (
	"time"

	"github.com/nclabs/communitybot/internal/models"
)

// AppendInput contains parameters for appending a ledger event
type AppendInput struct {
	Event *models.ActivityEvent
}

// ListSinceInput contains parameters for a time-range read of the ledger
type ListSinceInput struct {
	Since time.Time

	// ScorableOnly restricts the read to events with a non-zero point
	// weight, excluding membership events from score computations
	ScorableOnly bool
}

// ListSinceOutput contains the result of a time-range read
type ListSinceOutput struct {
	Events []*models.ActivityEvent
}
