package summarize

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/priceintel/pricingintel/internal/errs"
	"github.com/priceintel/pricingintel/pkg/config"
)

// GeminiProvider implements Provider using the official google.golang.org/genai
// SDK. JSON response mode is always requested (the synthesis contract is
// JSON-only), and the model/temperature/token-cap are config-driven
// rather than hardcoded.
type GeminiProvider struct {
	cfg config.LLMConfig
}

var _ Provider = (*GeminiProvider)(nil)

func NewGeminiProvider(cfg config.LLMConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg}
}

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, prompt string) (string, int, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", 0, &errs.ConfigError{Reason: "GEMINI_API_KEY environment variable not set"}
	}

	model := p.cfg.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", 0, &errs.LLMError{Stage: "call", Err: fmt.Errorf("creating genai client: %w", err)}
	}

	temperature := float32(p.cfg.Temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
	}
	if p.cfg.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(p.cfg.MaxTokens)
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", 0, &errs.LLMError{Stage: "call", Err: err}
	}
	tokensUsed := 0
	if result.UsageMetadata != nil {
		tokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}
	return result.Text(), tokensUsed, nil
}
