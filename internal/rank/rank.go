// Package rank serves the read path: paginated relevance rankings over the
// catalogue for an arbitrary keyword set.
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/magpie/internal/catalog"
	"github.com/FranksOps/magpie/internal/metrics"
)

// PageSize is the fixed number of results per page.
const PageSize = 5

// Result is one ranked URL with its per-keyword breakdown.
type Result struct {
	catalog.RankedURL
	Keywords []catalog.KeywordCount `json:"keywords"`
}

// Page is one slice of the ranking.
type Page struct {
	Results    []Result `json:"results"`
	Number     int      `json:"page"`
	TotalURLs  int      `json:"total_urls"`
	TotalPages int      `json:"total_pages"`
	HasMore    bool     `json:"has_more"`
}

// Engine ranks catalogued URLs by total keyword occurrences.
type Engine struct {
	store  catalog.Store
	logger *slog.Logger
}

func New(store catalog.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Rank returns page pageNum of the ranking for keywords. Page numbers start
// at 1 and out-of-range requests clamp to the first page; pages past the end
// come back empty. URLs are ordered by summed occurrences across the keyword
// set, ties broken by catalogue insertion order.
func (e *Engine) Rank(ctx context.Context, keywords []string, pageNum int) (*Page, error) {
	kws := normalize(keywords)
	if pageNum < 1 {
		pageNum = 1
	}

	page := &Page{Number: pageNum, TotalPages: 1}
	if len(kws) == 0 {
		return page, nil
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateKeywordSet(ctx, kws); err != nil {
		return nil, err
	}
	defer func() { _ = tx.DropKeywordSet(ctx) }()

	total, err := tx.CountMatchingURLs(ctx)
	if err != nil {
		return nil, err
	}
	page.TotalURLs = total
	page.TotalPages = (total + PageSize - 1) / PageSize
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}

	rows, err := tx.RankPage(ctx, PageSize, (pageNum-1)*PageSize)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		res := Result{RankedURL: row}
		res.Keywords, err = tx.KeywordBreakdown(ctx, row.ID)
		if err != nil {
			// A row that cannot be completed is dropped from the page.
			e.logger.Warn("keyword breakdown failed, skipping row", "url_id", row.ID, "error", err)
			continue
		}
		page.Results = append(page.Results, res)
	}

	page.HasMore = pageNum*PageSize < total && len(page.Results) == PageSize

	metrics.RankPagesTotal.Inc()
	e.logger.Debug("served ranking page",
		"keywords", kws, "page", pageNum, "total_urls", total, "results", len(page.Results))
	return page, nil
}

// normalize lowercases, trims and dedupes the keyword set, preserving the
// caller's order.
func normalize(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
