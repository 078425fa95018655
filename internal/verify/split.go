package verify

import (
	"strings"
	"unicode"
)

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "al": {}, "inc": {},
	"corp": {}, "ltd": {}, "no": {}, "vol": {}, "fig": {}, "approx": {},
	"u.s": {}, "u.k": {},
}

// SplitSentences breaks a draft answer into sentences. A period after a known
// abbreviation, inside a number, or not followed by whitespace does not end a
// sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Decimal point or versioned number: "3.5 percent".
		if r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		// Sentence ends only before whitespace or end of text.
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start : i+1]) {
			continue
		}

		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation checks whether the token preceding the final period is a
// known abbreviation.
func isAbbreviation(segment []rune) bool {
	s := strings.TrimSuffix(string(segment), ".")
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	last := strings.ToLower(s[idx+1:])
	_, ok := abbreviations[last]
	return ok
}
