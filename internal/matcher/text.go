package matcher

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// TextFrequencies counts keyword occurrences in free text. Single-word
// keywords match by stem, so "widget" also counts "widgets". Multi-word
// keywords match as literal lowercase substrings. Every keyword is present in
// the result, zero when unmatched.
func TextFrequencies(text string, keywords []string) Frequencies {
	freqs := ZeroFill(keywords)
	if text == "" {
		return freqs
	}

	lower := strings.ToLower(text)
	stemCounts := stemHistogram(lower)

	for _, kw := range keywords {
		lkw := strings.ToLower(kw)
		if strings.Contains(lkw, " ") {
			freqs[kw] = strings.Count(lower, lkw)
			continue
		}
		freqs[kw] = stemCounts[english.Stem(lkw, true)]
	}
	return freqs
}

func stemHistogram(lower string) map[string]int {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[english.Stem(w, true)]++
	}
	return counts
}
