package audit

import (
	"context"
)

// Service runs compliance analysis over member-submitted text
type Service interface {
	// Analyze sends text to the model and returns its verdict. The call
	// is bounded by the configured timeout; a transport or timeout
	// failure is returned without retry and leaves no audit trace.
	Analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error)
}
