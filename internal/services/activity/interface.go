package activity

import (
	"context"
)

// Service records member sightings and scorable actions in the
// engagement ledger.
type Service interface {
	// UpsertMember creates or refreshes the member directory row.
	// Callers must invoke this before (or alongside) Record, since
	// events reference members.
	UpsertMember(ctx context.Context, input *UpsertMemberInput) error

	// Record appends one immutable event with its weight looked up from
	// the fixed kind table
	Record(ctx context.Context, input *RecordInput) error
}
