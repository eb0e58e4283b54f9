// Package sanitize rewrites model output by ordered literal substitution.
package sanitize

import "strings"

// Rule replaces every occurrence of From with To.
type Rule struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Sanitizer applies its rules in order, each one to the output of the previous.
type Sanitizer struct {
	rules []Rule
}

// New copies rules so later edits by the caller do not leak in.
func New(rules []Rule) *Sanitizer {
	return &Sanitizer{rules: append([]Rule(nil), rules...)}
}

// Sanitize folds the replacement table over text. Matching is literal and
// case-sensitive; rules with an empty source are skipped.
func (s *Sanitizer) Sanitize(text string) string {
	if s == nil {
		return text
	}
	out := text
	for _, rule := range s.rules {
		if rule.From == "" {
			continue
		}
		out = strings.ReplaceAll(out, rule.From, rule.To)
	}
	return out
}

// Rules returns a copy of the configured table.
func (s *Sanitizer) Rules() []Rule {
	if s == nil {
		return nil
	}
	return append([]Rule(nil), s.rules...)
}

// CollisionKind says how a rule's output can produce another rule's source.
type CollisionKind string

const (
	// Contained: the replacement text itself contains the source phrase.
	Contained CollisionKind = "contained"
	// Straddle: the source phrase can form across the edge of the replacement,
	// joining it (or, for a deletion, the text on both sides) with its
	// neighbours.
	Straddle CollisionKind = "straddle"
)

// Collision names a rule whose output can be matched again on a second pass.
type Collision struct {
	Target int // index of the rule whose output forms the phrase
	Source int // index of the rule whose From can appear
	Kind   CollisionKind
}

// Collisions lists every pair where applying one rule can leave the source
// phrase of a rule, itself included, in the text. The check ignores the
// surrounding input, so it over-reports: an empty list guarantees
// Sanitize(Sanitize(x)) == Sanitize(x) for every x, a non-empty one only
// says some input may break it.
func (s *Sanitizer) Collisions() []Collision {
	if s == nil {
		return nil
	}
	var out []Collision
	for i, target := range s.rules {
		if target.From == "" {
			continue
		}
		for j, rule := range s.rules {
			if rule.From == "" {
				continue
			}
			switch {
			case target.To != "" && strings.Contains(target.To, rule.From):
				out = append(out, Collision{Target: i, Source: j, Kind: Contained})
			case straddles(rule.From, target.To):
				out = append(out, Collision{Target: i, Source: j, Kind: Straddle})
			}
		}
	}
	return out
}

// straddles reports whether phrase can match text that starts before, or ends
// after, an inserted replacement while overlapping it or its join point.
func straddles(phrase, replacement string) bool {
	for k := 1; k < len(phrase); k++ {
		head, tail := phrase[:k], phrase[k:]
		// Match begins in the left neighbour and runs into the replacement.
		if strings.HasPrefix(replacement, tail) || strings.HasPrefix(tail, replacement) {
			return true
		}
		// Match begins in the replacement and runs into the right neighbour.
		if strings.HasSuffix(replacement, head) || strings.HasSuffix(head, replacement) {
			return true
		}
	}
	return false
}

// Idempotent reports whether a second Sanitize pass is guaranteed to be a
// no-op, i.e. the table has no collisions of either kind.
func (s *Sanitizer) Idempotent() bool {
	return len(s.Collisions()) == 0
}

// Shadowed returns the indexes of rules that can never fire because an
// earlier rule already rewrote part of their source phrase.
func (s *Sanitizer) Shadowed() []int {
	if s == nil {
		return nil
	}
	var out []int
	for j, rule := range s.rules {
		if rule.From == "" {
			continue
		}
		for _, earlier := range s.rules[:j] {
			if earlier.From == "" || strings.Contains(earlier.To, earlier.From) {
				continue
			}
			if strings.Contains(rule.From, earlier.From) {
				out = append(out, j)
				break
			}
		}
	}
	return out
}
