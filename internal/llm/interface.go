package llm

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/nclabs/communitybot/internal/llm Client

// Client is a minimal text-in text-out interface over a hosted model
type Client interface {
	// Generate sends one prompt and returns the model's text response
	Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error)
}

// GenerateInput contains one model prompt
type GenerateInput struct {
	Prompt string
}

// GenerateOutput contains the model's response
type GenerateOutput struct {
	Text       string
	TokensUsed int
}
