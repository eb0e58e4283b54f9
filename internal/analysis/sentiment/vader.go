package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/jonreiter/govader"
)

// VaderScorer scores text with the VADER lexicon and rules. The compound
// score is already normalised to [-1, 1].
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the bundled VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity implements Scorer.
func (v *VaderScorer) Polarity(_ context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	compound := v.analyzer.PolarityScores(text).Compound
	if math.IsNaN(compound) {
		return 0
	}
	return math.Max(-1, math.Min(1, compound))
}
