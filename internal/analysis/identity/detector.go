// Package identity spots user questions about who the assistant is or who built it.
package identity

import "strings"

// Detector matches user text against a fixed keyword set.
type Detector struct {
	keywords []string
}

// NewDetector lower-cases the keywords and drops blank entries.
func NewDetector(keywords []string) *Detector {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		normalized = append(normalized, kw)
	}
	return &Detector{keywords: normalized}
}

// IsIdentityQuestion reports whether any keyword occurs in text, ignoring case.
// There is no word-boundary check.
func (d *Detector) IsIdentityQuestion(text string) bool {
	if d == nil || len(d.keywords) == 0 {
		return false
	}
	lowered := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized keyword set.
func (d *Detector) Keywords() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keywords...)
}
