package conversation

import "strings"

// Choice is the coarse classification of an utterance while a candidate
// is on offer.
type Choice int

const (
	ChoiceUnclear Choice = iota
	ChoiceAdvance
	ChoiceBook
)

// Keyword sets for the ordered-rule matcher. Matching is intentionally
// coarse; this must stay a fixed keyword list, not a learned classifier.
var (
	advanceKeywords = []string{"next", "other", "option", "another", "skip"}
	bookKeywords    = []string{"book", "like", "yes", "take", "that one"}
	affirmKeywords  = []string{"yes", "yeah", "sure", "okay"}
)

// ClassifyChoice matches the utterance against the advance and booking
// keyword sets, case-insensitive substring. The advance set is checked
// first: an ambiguous utterance like "yes, the next one" advances, since
// a skipped candidate can still be booked on the following prompt while
// the reverse would book a candidate the user asked past.
func ClassifyChoice(utterance string) Choice {
	u := strings.ToLower(utterance)
	if containsAny(u, advanceKeywords) {
		return ChoiceAdvance
	}
	if containsAny(u, bookKeywords) {
		return ChoiceBook
	}
	return ChoiceUnclear
}

// IsAffirmative reports whether a booking-confirmation answer counts as
// yes. Anything else is a decline.
func IsAffirmative(utterance string) bool {
	return containsAny(strings.ToLower(utterance), affirmKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
