package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-1.5-flash"

const complianceInstruction = "You are a compliance agent for an online creator community. " +
	"Analyze the provided text for potential policy violations, toxic behavior, " +
	"harassment, spam, or other community guideline risks. " +
	`Respond ONLY with valid JSON in this exact format: ` +
	`{"rating": "green" | "yellow" | "red", "summary": "<2-3 sentence assessment>"} ` +
	"- green: no issues detected " +
	"- yellow: monitor — borderline or minor concerns " +
	"- red: action needed — clear violation or serious risk"

// GeminiConfig holds configuration for the Gemini-backed client
type GeminiConfig struct {
	APIKey string

	// Model overrides the default model name
	Model string
}

// geminiClient implements Client against the Gemini API
type geminiClient struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Client backed by the Gemini API
func NewGemini(ctx context.Context, cfg *GeminiConfig) (*geminiClient, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &geminiClient{
		client: client,
		model:  model,
	}, nil
}

// Generate sends one prompt under the fixed compliance instruction
func (c *geminiClient) Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error) {
	if input == nil || input.Prompt == "" {
		return nil, errors.New("input and prompt cannot be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(input.Prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(complianceInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	out := &GenerateOutput{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return out, nil
}
