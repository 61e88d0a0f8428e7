package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"docqna/internal/config"
	"docqna/internal/helper"
)

// Client calls a hosted chat-completion model through an OpenAI-compatible
// endpoint with fixed temperature and max-token settings.
type Client struct {
	llm *openai.LLM
	cfg *config.LLMConfig
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %v", err)
	}
	return &Client{llm: llm, cfg: cfg}, nil
}

// Generate sends a system+user prompt and returns the first choice's text.
// Transient provider failures are retried with backoff; an empty completion
// is returned as "" for the caller to handle.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.MessageContent{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
	})

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		res, err := c.llm.GenerateContent(ctx, messages,
			llms.WithTemperature(c.cfg.Temperature),
			llms.WithMaxTokens(c.cfg.MaxTokens),
		)
		if err == nil {
			if len(res.Choices) == 0 {
				return "", nil
			}
			return res.Choices[0].Content, nil
		}
		lastErr = err
		if attempt < c.cfg.MaxRetries {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("generation call failed, retrying")
			time.Sleep(helper.RetryDelay(attempt))
		}
	}
	return "", fmt.Errorf("generation provider: %w", lastErr)
}
