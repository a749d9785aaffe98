package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/ports"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements ports.Completer with the Google GenAI SDK.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

var _ ports.Completer = (*GeminiClient)(nil)

// NewGeminiClient dials the Gemini API. Endpoint, when set, replaces the
// SDK base URL.
func NewGeminiClient(ctx context.Context, cfg config.OracleConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(cfg.Timeout),
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model, maxTokens: maxTokensOrDefault(cfg.MaxTokens)}, nil
}

// Complete returns the first text part of the first candidate.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: response has no candidates")
	}
	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}
