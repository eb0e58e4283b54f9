package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint,
// including Gemini's compatibility layer.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	maxTokens   int
}

// OpenAIOptions carries the optional sampling settings.
type OpenAIOptions struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// NewOpenAICompleter builds a client for apiKey at baseURL (empty keeps the OpenAI default).
func NewOpenAICompleter(apiKey, baseURL, model string, opts OpenAIOptions) *OpenAICompleter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}

	c := &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
	if opts.Temperature != nil {
		c.temperature = float32(*opts.Temperature)
	}
	if opts.TopP != nil {
		c.topP = float32(*opts.TopP)
	}
	if opts.MaxTokens != nil {
		c.maxTokens = *opts.MaxTokens
	}
	return c
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, history []Message, outbound string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: outbound})

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}

	log.Printf("[ai] %s completion history=%d tokens=%d", c.model, len(history), resp.Usage.TotalTokens)
	return content, nil
}
