package keywords

// stopWords is the fixed filler-word set excluded from keyword candidacy.
// A query made up entirely of these words yields no keywords at all.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		// Articles, conjunctions, prepositions
		"a", "an", "the", "and", "or", "but", "of", "to", "in", "on", "at",
		"for", "with", "by", "as", "that", "this", "these", "those", "there",
		"here", "which", "what", "when", "where", "who", "whom", "whose",
		"how", "why", "about", "above", "below", "into", "over", "under",
		"after", "before", "between", "from", "up", "down", "out", "off",
		"through", "during", "since", "until", "upon", "than", "if", "while",
		"because", "against",

		// Auxiliary and modal verbs
		"is", "are", "was", "were", "be", "been", "being", "am",
		"have", "has", "had", "having", "do", "does", "did", "doing",
		"can", "could", "shall", "should", "will", "would", "may", "might",
		"must",

		// Pronouns
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "your", "yours", "yourself", "he", "him", "his", "himself",
		"she", "her", "hers", "herself", "it", "its", "itself",
		"they", "them", "their", "theirs", "themselves",

		// Quantifiers and frequent qualifiers
		"so", "such", "same", "other", "another", "each", "every", "all",
		"any", "both", "either", "neither", "only", "just", "also", "very",
		"too", "much", "many", "more", "most", "few", "some", "no", "not",
		"nor", "now", "then", "well", "like", "even", "still", "back",
		"yet", "again", "ever", "never", "always", "often", "sometimes",
		"usually", "once", "twice",

		// Generic adjectives too common to characterize a query
		"first", "last", "next", "previous", "new", "old", "good", "bad",
		"high", "low", "big", "small", "long", "short", "great", "little",
		"own", "different",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

// isStopWord reports whether w belongs to the fixed filler-word set.
func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
