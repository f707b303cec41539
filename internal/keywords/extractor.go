// Package keywords turns free-text query strings into ranked keyword lists.
// Extraction is deterministic: the same query always yields the same ordered
// output.
package keywords

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scoring constants. Token and phrase weights compound multiplicatively for
// single tokens and sum across repeated candidate occurrences.
const (
	BaseWeight      = 1.0
	ProperNounBoost = 1.5
	LongTokenBoost  = 1.2
	PhraseWeight    = 2.0
	SplitWordWeight = 1.0

	// Tokens shorter than this never qualify. Boost applies above longTokenLen.
	minTokenLen  = 2
	longTokenLen = 5
)

// DefaultMaxKeywords caps extraction output unless overridden.
const DefaultMaxKeywords = 10

// Config controls extraction behavior.
type Config struct {
	// MaxKeywords caps the number of returned keywords (default 10).
	MaxKeywords int
	// SplitPhrases also admits the constituent words of a qualifying noun
	// phrase as independent candidates, and deduplicates selections at the
	// word level.
	SplitPhrases bool
}

// Extractor derives keywords from query text using a POS tagger.
type Extractor struct {
	tagger Tagger
	cfg    Config
}

// New creates an Extractor. A nil tagger falls back to the prose-backed
// default; a non-positive MaxKeywords falls back to DefaultMaxKeywords.
func New(tagger Tagger, cfg Config) *Extractor {
	if tagger == nil {
		tagger = NewTagger()
	}
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = DefaultMaxKeywords
	}
	return &Extractor{tagger: tagger, cfg: cfg}
}

// Default returns an Extractor with the prose tagger, a 10 keyword cap and
// phrase splitting enabled.
func Default() *Extractor {
	return New(nil, Config{MaxKeywords: DefaultMaxKeywords, SplitPhrases: true})
}

type candidate struct {
	text   string
	weight float64
}

// Extract returns the ranked keyword list for query, possibly empty.
// It has no side effects.
func (e *Extractor) Extract(query string) ([]string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	tokens, err := e.tagger.Tag(query)
	if err != nil {
		return nil, err
	}

	var candidates []candidate

	// Single tokens.
	for _, tok := range tokens {
		text := strings.ToLower(tok.Text)
		if !isWord(text) || isStopWord(text) || utf8.RuneCountInString(text) < minTokenLen {
			continue
		}
		if !isCandidateTag(tok.Tag) {
			continue
		}
		candidates = append(candidates, candidate{text: text, weight: scoreToken(text, tok.Tag)})
	}

	// Noun phrases.
	for _, phrase := range nounPhrases(tokens) {
		words := strings.Fields(phrase)
		if len(words) < 2 || anyStopWord(words) {
			continue
		}
		candidates = append(candidates, candidate{text: phrase, weight: PhraseWeight})
		if e.cfg.SplitPhrases {
			for _, w := range words {
				if !isStopWord(w) && utf8.RuneCountInString(w) >= minTokenLen {
					candidates = append(candidates, candidate{text: w, weight: SplitWordWeight})
				}
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	return e.selectTop(candidates), nil
}

// scoreToken is the pure per-token scoring function: base weight with
// compounding boosts for proper nouns and long tokens.
func scoreToken(text, tag string) float64 {
	score := BaseWeight
	if isProperNounTag(tag) {
		score *= ProperNounBoost
	}
	if utf8.RuneCountInString(text) > longTokenLen {
		score *= LongTokenBoost
	}
	return score
}

// nounPhrases identifies multi-token spans of adjectives/nouns that end in a
// noun, the shape spacy-style noun chunks take after determiner stripping.
func nounPhrases(tokens []Token) []string {
	var phrases []string
	var span []string
	lastNoun := -1 // index into span of the last noun seen

	flush := func() {
		if lastNoun >= 1 {
			phrases = append(phrases, strings.Join(span[:lastNoun+1], " "))
		}
		span = span[:0]
		lastNoun = -1
	}

	for _, tok := range tokens {
		text := strings.ToLower(tok.Text)
		if isWord(text) && (isNounTag(tok.Tag) || strings.HasPrefix(tok.Tag, "JJ")) {
			span = append(span, text)
			if isNounTag(tok.Tag) {
				lastNoun = len(span) - 1
			}
			continue
		}
		flush()
	}
	flush()

	return phrases
}

// selectTop aggregates candidate weights, orders deterministically and picks
// greedily up to the configured cap.
func (e *Extractor) selectTop(candidates []candidate) []string {
	scores := make(map[string]float64)
	for _, c := range candidates {
		scores[c.text] += c.weight
	}

	ranked := make([]string, 0, len(scores))
	for text := range scores {
		ranked = append(ranked, text)
	}

	// Descending weight, then descending length, then lexicographic. This
	// exact order is the determinism contract.
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		li, lj := utf8.RuneCountInString(ranked[i]), utf8.RuneCountInString(ranked[j])
		if li != lj {
			return li > lj
		}
		return ranked[i] < ranked[j]
	})

	var selected []string
	seenWords := make(map[string]struct{})

	for _, kw := range ranked {
		if e.cfg.SplitPhrases {
			words := strings.Fields(kw)
			overlap := false
			for _, w := range words {
				if _, ok := seenWords[w]; ok {
					overlap = true
					break
				}
			}
			if overlap {
				continue
			}
			for _, w := range words {
				seenWords[w] = struct{}{}
			}
		} else {
			if _, ok := seenWords[kw]; ok {
				continue
			}
			seenWords[kw] = struct{}{}
		}

		selected = append(selected, kw)
		if len(selected) >= e.cfg.MaxKeywords {
			break
		}
	}

	return selected
}

func anyStopWord(words []string) bool {
	for _, w := range words {
		if isStopWord(w) {
			return true
		}
	}
	return false
}

// isWord filters out punctuation and whitespace tokens.
func isWord(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
