package member

import (
	"context"

	"github.com/nclabs/communitybot/internal/models"
)

// Repository defines the interface for member directory persistence
type Repository interface {
	// Upsert creates or refreshes a member row; idempotent
	Upsert(ctx context.Context, input *UpsertInput) error

	// Get retrieves a member by Discord ID
	Get(ctx context.Context, input *GetInput) (*models.Member, error)

	// ListByIDs retrieves the members for a set of Discord IDs; IDs with
	// no row are simply absent from the result
	ListByIDs(ctx context.Context, input *ListByIDsInput) (*ListByIDsOutput, error)
}
