package llm

import (
	"context"
	"fmt"
	"strings"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/ports"
)

// Provider names accepted in oracle.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// NewCompleter selects the completer for cfg.Provider. An empty provider
// means anthropic.
func NewCompleter(ctx context.Context, cfg config.OracleConfig) (ports.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	case ProviderOpenAI:
		return NewChatGPTClient(cfg), nil
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
