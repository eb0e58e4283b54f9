package ai

import (
	"context"
	"fmt"

	"github.com/bagesh/luna-chat/backend/internal/config"
)

// NewCompleter builds the Completer for the configured provider.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini, config.ProviderOpenAI:
		return NewOpenAICompleter(cfg.APIKey, cfg.BaseURL, cfg.Model, OpenAIOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		completer, err := NewChainCompleter(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return completer, nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.Provider)
	}
}
