package identity

import "testing"

var keywords = []string{
	"who are you", "what is your name", "tell me about yourself",
	"what are you", "your identity", "are you an ai",
	"who made you", "who created you", "who developed you",
	"your developer", "your creator",
}

func TestIsIdentityQuestionMatchesAnyCase(t *testing.T) {
	d := NewDetector(keywords)
	for _, text := range []string{
		"Who are you?",
		"WHO MADE YOU",
		"hey, quick one: who created you and why?",
		"Tell me about your developer",
		"so... Are You An AI or not",
	} {
		if !d.IsIdentityQuestion(text) {
			t.Fatalf("expected %q to be an identity question", text)
		}
	}
}

func TestIsIdentityQuestionSubstringNoWordBoundary(t *testing.T) {
	d := NewDetector([]string{"who are you"})
	if !d.IsIdentityQuestion("guesswho are youngsters") {
		t.Fatal("expected substring match without word boundaries")
	}
}

func TestIsIdentityQuestionNoKeyword(t *testing.T) {
	d := NewDetector(keywords)
	for _, text := range []string{"", "What's the weather like?", "Tell me a joke", "who is Ada Lovelace"} {
		if d.IsIdentityQuestion(text) {
			t.Fatalf("expected %q not to be an identity question", text)
		}
	}
}

func TestNewDetectorNormalizesKeywords(t *testing.T) {
	d := NewDetector([]string{"  Your Creator ", "", "   "})
	got := d.Keywords()
	if len(got) != 1 || got[0] != "your creator" {
		t.Fatalf("unexpected keywords: %#v", got)
	}
	if !d.IsIdentityQuestion("Is Bagesh YOUR CREATOR?") {
		t.Fatal("expected upper-case keyword to match after normalization")
	}
}

func TestEmptyDetectorNeverMatches(t *testing.T) {
	var nilDetector *Detector
	if nilDetector.IsIdentityQuestion("who are you") {
		t.Fatal("nil detector must not match")
	}
	if NewDetector(nil).IsIdentityQuestion("who are you") {
		t.Fatal("empty detector must not match")
	}
}
