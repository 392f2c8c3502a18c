package audit

import (
	"context"
)

// Repository defines the interface for compliance audit log persistence
type Repository interface {
	// Insert writes one audit log row
	Insert(ctx context.Context, input *InsertInput) error
}
