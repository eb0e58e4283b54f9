package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Role values used in Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the history sent to the model.
type Message struct {
	Role    string
	Content string
}

// Completer sends an outbound turn plus the running history to a hosted model.
type Completer interface {
	Complete(ctx context.Context, history []Message, outbound string) (string, error)
}

// ChainCompleter runs the history and query through an eino chain.
type ChainCompleter struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewChainCompleter compiles the history template in front of chatModel.
func NewChainCompleter(ctx context.Context, chatModel model.ChatModel) (*ChainCompleter, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainCompleter{chatModel: chatModel, chain: runnable}, nil
}

// Complete implements Completer.
func (c *ChainCompleter) Complete(ctx context.Context, history []Message, outbound string) (string, error) {
	input := map[string]any{
		"history": toSchemaMessages(history),
		"query":   outbound,
	}

	response, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyCompletion
	}

	log.Printf("[ai] chain completion history=%d length=%d", len(history), len(response.Content))
	return response.Content, nil
}

// ChatModel exposes the underlying model for other chains.
func (c *ChainCompleter) ChatModel() model.ChatModel {
	return c.chatModel
}

func toSchemaMessages(messages []Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}
