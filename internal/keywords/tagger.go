package keywords

import (
	"fmt"
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// Token is one tagged unit of the query text. Tag uses Penn Treebank codes
// (NN, NNP, JJ, VB, ...).
type Token struct {
	Text string
	Tag  string
}

// Tagger tokenizes and part-of-speech-tags a query string.
type Tagger interface {
	Tag(text string) ([]Token, error)
}

// proseTagger tags with jdkato/prose. Segmentation and entity extraction are
// disabled; queries are single short strings and only POS tags are consumed.
type proseTagger struct{}

// NewTagger returns the default prose-backed Tagger.
func NewTagger() Tagger {
	return proseTagger{}
}

func (proseTagger) Tag(text string) ([]Token, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tag query: %w", err)
	}

	toks := doc.Tokens()
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		out = append(out, Token{Text: t.Text, Tag: t.Tag})
	}
	return out, nil
}

// isCandidateTag reports whether a Penn tag marks a noun, proper noun,
// adjective or verb.
func isCandidateTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") ||
		strings.HasPrefix(tag, "JJ") ||
		strings.HasPrefix(tag, "VB")
}

// isProperNounTag reports whether a Penn tag marks a proper noun.
func isProperNounTag(tag string) bool {
	return tag == "NNP" || tag == "NNPS"
}

// isNounTag reports whether a Penn tag marks any noun.
func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}
