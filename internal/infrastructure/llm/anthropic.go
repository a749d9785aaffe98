package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/ports"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel    = "claude-sonnet-4-20250514"
	anthropicVersion         = "2023-06-01"
)

// AnthropicClient implements ports.Completer on the Messages API.
type AnthropicClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

var _ ports.Completer = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.OracleConfig) *AnthropicClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultAnthropicEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		endpoint:   endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		maxTokens:  maxTokensOrDefault(cfg.MaxTokens),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as one user turn and joins the text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("anthropic: api key is required")
	}

	headers := map[string]string{
		"X-API-Key":         c.apiKey,
		"Anthropic-Version": anthropicVersion,
	}
	var out anthropicResponse
	err := postJSON(ctx, c.httpClient, c.endpoint, headers, anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}, &out)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("anthropic: %s: %s", out.Error.Type, out.Error.Message)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("anthropic: response has no text content")
	}
	return strings.TrimSpace(text.String()), nil
}
