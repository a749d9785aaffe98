package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/ports"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// ChatGPTClient implements ports.Completer backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

var _ ports.Completer = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.OracleConfig) *ChatGPTClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &ChatGPTClient{
		endpoint:   endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		maxTokens:  maxTokensOrDefault(cfg.MaxTokens),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete posts prompt as a single user message.
func (c *ChatGPTClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("chatgpt client misconfigured: missing api key")
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	var out chatResponse
	err := postJSON(ctx, c.httpClient, c.endpoint, headers, chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("chatgpt: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chatgpt: response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
