package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abiturprep/abitur-backend/internal/config"
)

// ErrEmptyCompletion is returned when the API answers without usable text.
var ErrEmptyCompletion = errors.New("empty completion from LLM")

// Client wraps an OpenAI-compatible completion API for exam generation.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New creates a new LLM client from configuration. A non-empty base URL
// points the client at any OpenAI-compatible gateway.
func New(cfg *config.Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		apiCfg.BaseURL = cfg.LLMBaseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.LLMModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
	}
}

// Complete sends the system instructions and the fully substituted user
// prompt, returning the completion text. The caller bounds the call via
// ctx; deadline expiry surfaces as a context error.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}

	return content, nil
}
