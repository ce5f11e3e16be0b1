package bookwriter

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Temperature is the sampling temperature used for every completion request.
const Temperature = 0.7

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Client is the Text Completion Service. Each call sends one system
// instruction and one user prompt and returns the model's reply.
type Client interface {
	SendMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ClientConfig selects and configures a completion provider.
type ClientConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
}

// NewClient builds the client for cfg.Provider.
func NewClient(cfg ClientConfig, logger *log.Logger) (Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	case ProviderClaude:
		return NewClaudeClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
