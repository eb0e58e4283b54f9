// Package sentiment tags user text as positive, neutral or negative.
package sentiment

import (
	"context"
	"log"
)

// Label is the polarity class of a piece of text.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Scorer returns a real-valued polarity for text. Uninterpretable text scores 0.
// Scorers that call out honour ctx cancellation.
type Scorer interface {
	Polarity(ctx context.Context, text string) float64
}

// Classifier maps polarity scores onto labels.
type Classifier struct {
	scorer Scorer
}

// NewClassifier falls back to the VADER scorer when scorer is nil.
func NewClassifier(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	return &Classifier{scorer: scorer}
}

// Classify never fails; a panicking scorer is treated as neutral.
func (c *Classifier) Classify(ctx context.Context, text string) (label Label) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[sentiment] scorer panic, treating as neutral: %v", r)
			label = Neutral
		}
	}()
	return FromScore(c.scorer.Polarity(ctx, text))
}

// FromScore applies the sign convention: > 0 positive, 0 neutral, < 0 negative.
// NaN is neutral.
func FromScore(score float64) Label {
	switch {
	case score > 0:
		return Positive
	case score < 0:
		return Negative
	default:
		return Neutral
	}
}

// Acknowledgments holds the canned line shown for each label.
type Acknowledgments struct {
	Positive string
	Negative string
}

// DefaultAcknowledgments are the stock lines; neutral input gets none.
var DefaultAcknowledgments = Acknowledgments{
	Positive: "I'm glad to hear that!",
	Negative: "I'm sorry to hear that. Let me help.",
}

// For returns the line for label, or "" for neutral.
func (a Acknowledgments) For(label Label) string {
	switch label {
	case Positive:
		return a.Positive
	case Negative:
		return a.Negative
	default:
		return ""
	}
}
