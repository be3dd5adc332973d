// ABOUTME: Pairwise relevance scoring between content items
// ABOUTME: Token overlap on title+description plus a first-word title bonus
package relevance

import (
	"regexp"
	"strings"
)

// ScoreIdentity is returned when the candidate is the reference item
// itself, which must never be recommended.
const ScoreIdentity = -1

var nonWord = regexp.MustCompile(`[^\w\s]+`)

var stopWords = map[string]struct{}{
	"with": {},
	"this": {},
	"that": {},
	"from": {},
	"into": {},
}

// Score computes an integer relevance score for cand against ref.
// Candidate tokens count once per occurrence, so the score is not
// symmetric. Non-identity scores are always >= 0.
func Score(ref, cand Item) int {
	if cand.ID == ref.ID {
		return ScoreIdentity
	}

	refSet := make(map[string]struct{})
	for _, tok := range tokenize(ref) {
		refSet[tok] = struct{}{}
	}

	score := 0
	for _, tok := range tokenize(cand) {
		if _, ok := refSet[tok]; ok {
			score++
		}
	}

	// The first-word comparison is intentionally on the raw title:
	// case and punctuation must match exactly.
	if fw := firstWord(ref.Title); fw != "" && fw == firstWord(cand.Title) {
		score += 2
	}
	return score
}

// tokenize lowercases the item's title and description, strips
// punctuation, and drops short and stop-listed tokens.
func tokenize(it Item) []string {
	text := strings.ToLower(it.Title + " " + it.Description)
	text = nonWord.ReplaceAllString(text, "")

	var tokens []string
	for _, tok := range strings.Fields(text) {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func firstWord(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
