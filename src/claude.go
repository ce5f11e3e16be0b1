package bookwriter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"
)

const DefaultClaudeModel = "claude-sonnet-4-5"

type ClaudeClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *log.Logger
}

func NewClaudeClient(cfg ClientConfig, logger *log.Logger) *ClaudeClient {
	if logger == nil {
		logger = log.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultClaudeModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger.With("provider", ProviderClaude),
	}
}

func (c *ClaudeClient) SendMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(Temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		c.logger.Error("completion request failed", "model", c.model, "err", err, "duration", time.Since(start))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("completion request finished", "model", c.model, "duration", time.Since(start))
	return strings.TrimSpace(text.String()), nil
}
