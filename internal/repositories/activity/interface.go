package activity

import (
	"context"
)

// Repository defines the interface for the append-only activity ledger
type Repository interface {
	// Append writes one immutable event row
	Append(ctx context.Context, input *AppendInput) error

	// ListSince retrieves all events created at or after a cutoff
	ListSince(ctx context.Context, input *ListSinceInput) (*ListSinceOutput, error)
}
