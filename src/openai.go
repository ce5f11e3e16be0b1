package bookwriter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o"

// OpenAIClient talks to the chat completions API. Retries are disabled so a
// failed request surfaces to the caller immediately.
type OpenAIClient struct {
	client openai.Client
	model  string
	logger *log.Logger
}

func NewOpenAIClient(cfg ClientConfig, logger *log.Logger) *OpenAIClient {
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
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger.With("provider", ProviderOpenAI),
	}
}

func (c *OpenAIClient) SendMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		c.logger.Error("completion request failed", "model", c.model, "err", err, "duration", time.Since(start))
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("completion request finished",
		"model", c.model,
		"total_tokens", completion.Usage.TotalTokens,
		"duration", time.Since(start),
	)
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
