package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/FranksOps/magpie/internal/catalog"
	"github.com/FranksOps/magpie/internal/catalog/sqlite"
	"github.com/FranksOps/magpie/internal/consolidate"
	"github.com/FranksOps/magpie/internal/matcher"
)

type stubExtractor struct {
	keywords []string
	err      error
}

func (s stubExtractor) Extract(string) ([]string, error) {
	return s.keywords, s.err
}

// stubMeasurer returns canned per-URL counts for the first keyword and zero
// for the rest, or a per-URL error.
type stubMeasurer struct {
	counts map[string]int
	errs   map[string]error
	calls  []string
}

func (s *stubMeasurer) Measure(_ context.Context, rawURL string, ctype catalog.ContentType, keywords []string) (matcher.Frequencies, catalog.KeywordTag, error) {
	s.calls = append(s.calls, rawURL)
	if err := s.errs[rawURL]; err != nil {
		return nil, ctype.Tag(), err
	}
	freqs := matcher.ZeroFill(keywords)
	if len(keywords) > 0 {
		freqs[keywords[0]] = s.counts[rawURL]
	}
	return freqs, ctype.Tag(), nil
}

type denyAll struct{}

func (denyAll) Allowed(context.Context, string) bool { return false }

func newTestStore(t *testing.T) catalog.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func findURL(t *testing.T, s catalog.Store, rawURL string) *catalog.URL {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer func() { _ = tx.Rollback() }()
	u, err := tx.FindURL(ctx, rawURL)
	if err != nil {
		t.Fatalf("FindURL failed: %v", err)
	}
	return u
}

func keywordCounts(t *testing.T, s catalog.Store, urlID int64) map[string]catalog.KeywordCount {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer func() { _ = tx.Rollback() }()
	rows, err := tx.KeywordCounts(ctx, urlID)
	if err != nil {
		t.Fatalf("KeywordCounts failed: %v", err)
	}
	out := make(map[string]catalog.KeywordCount, len(rows))
	for _, r := range rows {
		out[r.Keyword] = r
	}
	return out
}

func twoURLRun() *consolidate.Consolidated {
	return &consolidate.Consolidated{
		UniqueURLs: []consolidate.URLRecord{
			{
				URL:            "https://example.com/article",
				Title:          "Widget Article",
				Domain:         "example.com",
				SourceEngines:  []string{"google", "bing"},
				DuplicateCount: 2,
			},
			{
				URL:            "https://cdn.example.com/banner.png",
				Domain:         "cdn.example.com",
				SourceEngines:  []string{"google"},
				DuplicateCount: 1,
			},
		},
		Statistics: consolidate.Stats{
			TotalOriginalURLs: 3,
			TotalUniqueURLs:   2,
			TotalOccurrences:  3,
			TotalAdsRemoved:   1,
		},
	}
}

func TestRunPersistsMeasurements(t *testing.T) {
	store := newTestStore(t)
	meas := &stubMeasurer{counts: map[string]int{
		"https://example.com/article":        4,
		"https://cdn.example.com/banner.png": 2,
	}}
	p := New(store, stubExtractor{keywords: []string{"widget", "gear"}}, nil, meas, nil, nil)

	summary, err := p.Run(context.Background(), twoURLRun(), "widget gear")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.QueryID == 0 {
		t.Error("expected a persisted query id")
	}
	if summary.Measured != 2 || summary.Reused != 0 || summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	// 3 raw occurrences, 2 unique, nothing reused.
	if summary.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", summary.Duplicates)
	}

	page := findURL(t, store, "https://example.com/article")
	if page == nil {
		t.Fatal("article url missing from catalogue")
	}
	if page.Type != catalog.ContentPage || !page.Scrapable || page.Title != "Widget Article" {
		t.Errorf("unexpected page record: %+v", page)
	}
	counts := keywordCounts(t, store, page.ID)
	if counts["widget"].Occurrence != 4 || counts["widget"].Tag != catalog.TagText {
		t.Errorf("unexpected widget row: %+v", counts["widget"])
	}
	if counts["gear"].Occurrence != 0 {
		t.Errorf("expected zero-filled gear row, got %+v", counts["gear"])
	}

	img := findURL(t, store, "https://cdn.example.com/banner.png")
	if img == nil {
		t.Fatal("image url missing from catalogue")
	}
	if img.Type != catalog.ContentImage {
		t.Errorf("expected image classification, got %s", img.Type)
	}
	imgCounts := keywordCounts(t, store, img.ID)
	if imgCounts["widget"].Occurrence != 2 || imgCounts["widget"].Tag != catalog.TagImage {
		t.Errorf("unexpected image widget row: %+v", imgCounts["widget"])
	}
}

func TestRunNoKeywordsWritesNothing(t *testing.T) {
	store := newTestStore(t)
	meas := &stubMeasurer{}
	p := New(store, stubExtractor{keywords: nil}, nil, meas, nil, nil)

	summary, err := p.Run(context.Background(), twoURLRun(), "the of and")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.QueryID != 0 {
		t.Errorf("expected no query row, got id %d", summary.QueryID)
	}
	if len(meas.calls) != 0 {
		t.Errorf("expected no measurements, got %v", meas.calls)
	}
	if findURL(t, store, "https://example.com/article") != nil {
		t.Error("expected no catalogue writes for a keyword-less query")
	}
}

func TestRunReusesCataloguedURLs(t *testing.T) {
	store := newTestStore(t)
	meas := &stubMeasurer{counts: map[string]int{
		"https://example.com/article":        4,
		"https://cdn.example.com/banner.png": 2,
	}}
	p := New(store, stubExtractor{keywords: []string{"widget"}}, nil, meas, nil, nil)
	ctx := context.Background()

	first, err := p.Run(ctx, twoURLRun(), "widget")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Second run sees both URLs again, with fresher counts.
	meas.counts["https://example.com/article"] = 9
	second, err := p.Run(ctx, twoURLRun(), "widget again")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if second.QueryID == first.QueryID {
		t.Error("expected a new query row per run")
	}
	if second.Reused != 2 {
		t.Errorf("reused = %d, want 2", second.Reused)
	}
	// 1 inter-engine duplicate plus 2 reused.
	if second.Duplicates != 3 {
		t.Errorf("duplicates = %d, want 3", second.Duplicates)
	}

	page := findURL(t, store, "https://example.com/article")
	if page == nil {
		t.Fatal("article url missing")
	}
	if page.QueryID != first.QueryID {
		t.Errorf("reused url changed owner: got query %d, want %d", page.QueryID, first.QueryID)
	}
	counts := keywordCounts(t, store, page.ID)
	if counts["widget"].Occurrence != 9 {
		t.Errorf("expected remeasured count 9, got %+v", counts["widget"])
	}
}

func TestRunBackfillsEngines(t *testing.T) {
	store := newTestStore(t)
	meas := &stubMeasurer{counts: map[string]int{}}
	p := New(store, stubExtractor{keywords: []string{"widget"}}, nil, meas, nil, nil)
	ctx := context.Background()

	bare := &consolidate.Consolidated{
		UniqueURLs: []consolidate.URLRecord{{URL: "https://example.com/a", Domain: "example.com"}},
		Statistics: consolidate.Stats{TotalOriginalURLs: 1, TotalUniqueURLs: 1, TotalOccurrences: 1},
	}
	if _, err := p.Run(ctx, bare, "widget"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	withEngines := &consolidate.Consolidated{
		UniqueURLs: []consolidate.URLRecord{{
			URL:           "https://example.com/a",
			Domain:        "example.com",
			SourceEngines: []string{"duckduckgo"},
		}},
		Statistics: consolidate.Stats{TotalOriginalURLs: 1, TotalUniqueURLs: 1, TotalOccurrences: 1},
	}
	if _, err := p.Run(ctx, withEngines, "widget refresh"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	got := findURL(t, store, "https://example.com/a")
	if got == nil {
		t.Fatal("url missing")
	}
	if len(got.Engines) != 1 || got.Engines[0] != "duckduckgo" {
		t.Errorf("expected backfilled engines, got %v", got.Engines)
	}
}

func TestRunHandlesGoneAndFailingURLs(t *testing.T) {
	store := newTestStore(t)
	meas := &stubMeasurer{
		counts: map[string]int{},
		errs: map[string]error{
			"https://example.com/article":        fmt.Errorf("%w", matcher.ErrNotFound),
			"https://cdn.example.com/banner.png": errors.New("connection reset"),
		},
	}
	p := New(store, stubExtractor{keywords: []string{"widget"}}, nil, meas, nil, nil)

	summary, err := p.Run(context.Background(), twoURLRun(), "widget")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(summary.NotFoundURLs) != 1 || summary.NotFoundURLs[0] != "https://example.com/article" {
		t.Errorf("unexpected not-found list: %v", summary.NotFoundURLs)
	}
	if summary.Failed != 1 || summary.Measured != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	// Both still got zero-filled rows.
	for _, raw := range []string{"https://example.com/article", "https://cdn.example.com/banner.png"} {
		u := findURL(t, store, raw)
		if u == nil {
			t.Fatalf("%s missing from catalogue", raw)
		}
		counts := keywordCounts(t, store, u.ID)
		if counts["widget"].Occurrence != 0 {
			t.Errorf("%s: expected zero-filled count, got %+v", raw, counts["widget"])
		}
	}
}

func TestRunRespectsPermits(t *testing.T) {
	store := newTestStore(t)
	meas := &stubMeasurer{counts: map[string]int{}}
	p := New(store, stubExtractor{keywords: []string{"widget"}}, denyAll{}, meas, nil, nil)

	summary, err := p.Run(context.Background(), twoURLRun(), "widget")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", summary.Skipped)
	}
	if len(meas.calls) != 0 {
		t.Errorf("expected no measurements for disallowed urls, got %v", meas.calls)
	}
	u := findURL(t, store, "https://example.com/article")
	if u == nil || u.Scrapable {
		t.Errorf("expected unscrapable record, got %+v", u)
	}
}
