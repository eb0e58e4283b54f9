// Package sentiment scores user text with the chat model, falling back to VADER.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	analysis "github.com/bagesh/luna-chat/backend/internal/analysis/sentiment"
	"github.com/bagesh/luna-chat/backend/internal/service/ai"
)

const defaultTimeout = 10 * time.Second

// Config controls the model scorer.
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// ModelScorer implements analysis.Scorer by asking the model for a polarity.
type ModelScorer struct {
	enabled   bool
	completer ai.Completer
	fallback  analysis.Scorer
	timeout   time.Duration
}

// NewModelScorer returns a scorer that uses completer when enabled and
// otherwise, or on any failure, the VADER scorer.
func NewModelScorer(completer ai.Completer, cfg Config) *ModelScorer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ModelScorer{
		enabled:   cfg.Enabled && completer != nil,
		completer: completer,
		fallback:  analysis.NewVaderScorer(),
		timeout:   timeout,
	}
}

// Enabled reports whether the model is consulted at all.
func (s *ModelScorer) Enabled() bool {
	return s != nil && s.enabled
}

// Polarity implements analysis.Scorer.
func (s *ModelScorer) Polarity(ctx context.Context, text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	if !s.Enabled() {
		return s.fallback.Polarity(ctx, text)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.completer.Complete(callCtx, nil, fmt.Sprintf(polarityPrompt, trimmed))
	if err != nil {
		log.Printf("[sentiment] model scorer failed, use fallback: %v", err)
		return s.fallback.Polarity(ctx, text)
	}

	payload, err := parseScorerOutput(content)
	if err != nil {
		log.Printf("[sentiment] model output parse failed, use fallback: %v", err)
		return s.fallback.Polarity(ctx, text)
	}
	return clampPolarity(payload.Polarity)
}

// parseScorerOutput extracts the first JSON object from the model reply.
func parseScorerOutput(content string) (*scorerPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &scorerPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	if payload.Polarity == nil {
		return nil, fmt.Errorf("missing polarity field")
	}
	return payload, nil
}

func clampPolarity(val *float64) float64 {
	if val == nil || math.IsNaN(*val) {
		return 0
	}
	return math.Max(-1, math.Min(1, *val))
}

type scorerPayload struct {
	Polarity *float64 `json:"polarity"`
}

const polarityPrompt = "You are a sentiment analyst. Rate the polarity of the user's message as a number between -1 (very negative) and 1 (very positive); use 0 when it carries no sentiment.\n" +
	"Reply with a single JSON object of the form {\"polarity\": <number>} and nothing else.\n\nMessage:\n%s"
