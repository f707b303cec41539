package keywords

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

// stubTagger returns a fixed token stream, keeping extraction tests
// independent of the statistical tagger model.
type stubTagger struct {
	tokens []Token
}

func (s stubTagger) Tag(string) ([]Token, error) {
	return s.tokens, nil
}

func toks(pairs ...string) []Token {
	if len(pairs)%2 != 0 {
		panic("toks: need text/tag pairs")
	}
	var out []Token
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Token{Text: pairs[i], Tag: pairs[i+1]})
	}
	return out
}

func TestExtractWithPhraseSplitting(t *testing.T) {
	tagger := stubTagger{tokens: toks(
		"machine", "NN",
		"learning", "NN",
		"for", "IN",
		"climate", "NN",
		"prediction", "NN",
	)}

	e := New(tagger, Config{MaxKeywords: 10, SplitPhrases: true})
	got, err := e.Extract("machine learning for climate prediction")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Tokens and split phrase words aggregate to 2.2 each; the two phrases
	// score 2.0 and lose every word to earlier selections.
	want := []string{"prediction", "learning", "climate", "machine"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractProperNounBoost(t *testing.T) {
	tagger := stubTagger{tokens: toks(
		"tesla", "NNP",
		"stock", "NN",
		"analysis", "NN",
	)}

	e := New(tagger, Config{MaxKeywords: 10, SplitPhrases: true})
	got, err := e.Extract("tesla stock analysis")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// tesla: 1.5 token + 1.0 split = 2.5; analysis: 1.2 + 1.0 = 2.2;
	// the 3-word phrase and stock tie at 2.0 but the phrase overlaps.
	want := []string{"tesla", "analysis", "stock"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractNoSplitKeepsPhrase(t *testing.T) {
	tagger := stubTagger{tokens: toks(
		"tesla", "NNP",
		"stock", "NN",
		"analysis", "NN",
	)}

	e := New(tagger, Config{MaxKeywords: 10, SplitPhrases: false})
	got, err := e.Extract("tesla stock analysis")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Without splitting only exact duplicates are removed, so the phrase
	// coexists with its words.
	want := []string{"tesla stock analysis", "tesla", "analysis", "stock"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractMaxKeywords(t *testing.T) {
	tagger := stubTagger{tokens: toks(
		"solar", "JJ",
		"panels", "NNS",
		"roof", "NN",
		"cost", "NN",
	)}

	e := New(tagger, Config{MaxKeywords: 2, SplitPhrases: true})
	got, err := e.Extract("solar panels roof cost")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 keywords, got %v", got)
	}
}

func TestExtractNoSharedWords(t *testing.T) {
	tagger := stubTagger{tokens: toks(
		"rust", "NN",
		"compiler", "NN",
		"internals", "NNS",
		"rust", "NN",
	)}

	e := New(tagger, Config{MaxKeywords: 10, SplitPhrases: true})
	got, err := e.Extract("rust compiler internals rust")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, kw := range got {
		for _, w := range strings.Fields(kw) {
			if seen[w] {
				t.Errorf("word %q appears in more than one selected keyword: %v", w, got)
			}
			seen[w] = true
		}
	}
}

func TestExtractSkipsShortAndStopTokens(t *testing.T) {
	tagger := stubTagger{tokens: toks(
		"go", "NN", // exactly minimum length, kept
		",", ",",
		"x", "NN", // too short
		"the", "DT",
		"own", "JJ", // stop word despite candidate tag
	)}

	e := New(tagger, Config{MaxKeywords: 10, SplitPhrases: true})
	got, err := e.Extract("go, x the own")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{"go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractFillerOnlyQueryIsEmpty(t *testing.T) {
	// Default prose tagger: whatever tags these receive, every token is in
	// the stop-word set and no phrase can qualify.
	got, err := Default().Extract("the and of about over under")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no keywords for filler-only query, got %v", got)
	}
}

func TestExtractEmptyQuery(t *testing.T) {
	got, err := Default().Extract("   ")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no keywords, got %v", got)
	}
}

func TestExtractDeterministic(t *testing.T) {
	const query = "renewable energy storage systems comparison"

	e := Default()
	first, err := e.Extract(query)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := e.Extract(query)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not deterministic: %v vs %v", first, second)
	}
}

func TestScoreToken(t *testing.T) {
	cases := []struct {
		text string
		tag  string
		want float64
	}{
		{"stock", "NN", 1.0},
		{"tesla", "NNP", 1.5},
		{"climate", "NN", 1.2},
		{"montreal", "NNP", 1.5 * 1.2},
	}
	for _, c := range cases {
		// Boosts compound as floats at runtime, so compare within an epsilon.
		if got := scoreToken(c.text, c.tag); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("scoreToken(%q, %q) = %v, want %v", c.text, c.tag, got, c.want)
		}
	}
}
