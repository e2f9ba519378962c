package brain

import "strings"

// stopwords are filler words stripped when falling back to keyword search.
var stopwords = map[string]struct{}{
	"play": {}, "some": {}, "me": {}, "i": {}, "want": {}, "can": {},
	"you": {}, "please": {}, "listen": {}, "to": {}, "for": {}, "a": {},
	"put": {}, "on": {}, "the": {},
}

// KeywordFallback strips filler words and returns a basic search query.
// Used when the AI is unavailable.
//
// Example: "play some high energy dnb" -> "high energy dnb"
func KeywordFallback(rawText string) string {
	words := strings.Fields(strings.ToLower(rawText))
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := stopwords[w]; !ok {
			cleaned = append(cleaned, w)
		}
	}

	// Stopword-only requests fall back to the raw text so the search stage
	// always receives something to work with.
	if len(cleaned) == 0 {
		return strings.TrimSpace(strings.ToLower(rawText))
	}

	return strings.Join(cleaned, " ")
}
