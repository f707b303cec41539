// Package ingest runs the write path: it takes one query's consolidated URL
// list, extracts the query keywords, measures every URL and persists the lot
// inside a single catalog transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/magpie/internal/catalog"
	"github.com/FranksOps/magpie/internal/consolidate"
	"github.com/FranksOps/magpie/internal/matcher"
	"github.com/FranksOps/magpie/internal/metrics"
	"github.com/FranksOps/magpie/internal/permit"
)

// KeywordExtractor turns the raw query text into weighted-and-ranked keywords.
type KeywordExtractor interface {
	Extract(query string) ([]string, error)
}

// Measurer produces keyword frequencies for one URL.
type Measurer interface {
	Measure(ctx context.Context, rawURL string, ctype catalog.ContentType, keywords []string) (matcher.Frequencies, catalog.KeywordTag, error)
}

// TitleFetcher resolves a page title when the engines did not supply one.
type TitleFetcher interface {
	PageTitle(ctx context.Context, targetURL string) string
}

// Pipeline wires the ingestion collaborators together.
type Pipeline struct {
	store    catalog.Store
	extract  KeywordExtractor
	permits  permit.Checker
	measurer Measurer
	titles   TitleFetcher
	logger   *slog.Logger
}

func New(store catalog.Store, extract KeywordExtractor, permits permit.Checker, measurer Measurer, titles TitleFetcher, logger *slog.Logger) *Pipeline {
	if permits == nil {
		permits = permit.AllowAll{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		extract:  extract,
		permits:  permits,
		measurer: measurer,
		titles:   titles,
		logger:   logger,
	}
}

// RunSummary describes what one ingestion run did.
type RunSummary struct {
	RunID    string    `json:"run_id"`
	QueryID  int64     `json:"query_id"`
	Query    string    `json:"query"`
	Keywords []string  `json:"keywords"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	TotalURLs  int `json:"total_urls"`
	UniqueURLs int `json:"unique_urls"`
	Duplicates int `json:"duplicates"`
	AdsRemoved int `json:"ads_removed"`

	Measured int `json:"measured"`
	Reused   int `json:"reused"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`

	NotFoundURLs []string `json:"not_found_urls,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Run ingests one consolidated result set for queryText. All writes happen in
// a single transaction: a late failure leaves the catalogue untouched. When
// the query yields no keywords nothing is written at all.
func (p *Pipeline) Run(ctx context.Context, cons *consolidate.Consolidated, queryText string) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:      uuid.NewString(),
		Query:      queryText,
		Started:    time.Now().UTC(),
		TotalURLs:  cons.Statistics.TotalOriginalURLs,
		UniqueURLs: cons.Statistics.TotalUniqueURLs,
		AdsRemoved: cons.Statistics.TotalAdsRemoved,
		Warnings:   cons.Statistics.Warnings,
	}
	log := p.logger.With("run_id", summary.RunID, "query", queryText)

	kws, err := p.extract.Extract(queryText)
	if err != nil {
		metrics.RecordRun("error")
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	summary.Keywords = kws
	if len(kws) == 0 {
		log.Warn("query produced no keywords, skipping ingestion")
		summary.Finished = time.Now().UTC()
		metrics.RecordRun("empty")
		return summary, nil
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		metrics.RecordRun("error")
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	if err := p.run(ctx, tx, cons, summary, log); err != nil {
		_ = tx.Rollback()
		metrics.RecordRun("error")
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordRun("error")
		return nil, fmt.Errorf("commit: %w", err)
	}

	summary.Finished = time.Now().UTC()
	metrics.RecordRun("ok")
	metrics.RecordRunDuration(summary.Finished.Sub(summary.Started))
	log.Info("ingestion run complete",
		"query_id", summary.QueryID,
		"unique_urls", summary.UniqueURLs,
		"measured", summary.Measured,
		"reused", summary.Reused,
		"not_found", len(summary.NotFoundURLs),
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, tx catalog.Tx, cons *consolidate.Consolidated, summary *RunSummary, log *slog.Logger) error {
	queryID, err := tx.InsertQuery(ctx, &catalog.Query{
		Text:       summary.Query,
		TotalURLs:  summary.TotalURLs,
		UniqueURLs: summary.UniqueURLs,
		AdsRemoved: summary.AdsRemoved,
	})
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	summary.QueryID = queryID

	for i := range cons.UniqueURLs {
		if err := p.ingestURL(ctx, tx, queryID, &cons.UniqueURLs[i], summary, log); err != nil {
			return err
		}
	}

	// Inter-engine repeats plus URLs already catalogued by earlier runs.
	summary.Duplicates = cons.Statistics.TotalOccurrences - cons.Statistics.TotalUniqueURLs + summary.Reused
	if err := tx.SetQueryDuplicates(ctx, queryID, summary.Duplicates); err != nil {
		return fmt.Errorf("finalize duplicates: %w", err)
	}
	return nil
}

func (p *Pipeline) ingestURL(ctx context.Context, tx catalog.Tx, queryID int64, rec *consolidate.URLRecord, summary *RunSummary, log *slog.Logger) error {
	existing, err := tx.FindURL(ctx, rec.URL)
	if err != nil {
		return fmt.Errorf("look up %s: %w", rec.URL, err)
	}

	var (
		urlID     int64
		ctype     catalog.ContentType
		scrapable bool
	)
	switch {
	case existing != nil:
		urlID = existing.ID
		ctype = existing.Type
		scrapable = existing.Scrapable
		summary.Reused++

		if len(existing.Engines) == 0 && len(rec.SourceEngines) > 0 {
			if err := tx.SetURLEngines(ctx, urlID, rec.SourceEngines); err != nil {
				return fmt.Errorf("backfill engines for %s: %w", rec.URL, err)
			}
		}
		log.Debug("url already catalogued, reusing", "url", rec.URL, "url_id", urlID)

	default:
		ctype = catalog.ClassifyURL(rec.URL)
		scrapable = p.permits.Allowed(ctx, rec.URL)

		title := rec.Title
		if title == "" && scrapable && ctype == catalog.ContentPage && p.titles != nil {
			title = p.titles.PageTitle(ctx, rec.URL)
		}

		urlID, err = tx.InsertURL(ctx, &catalog.URL{
			QueryID:     queryID,
			URL:         rec.URL,
			Engines:     rec.SourceEngines,
			Type:        ctype,
			Domain:      rec.Domain,
			Title:       title,
			Description: rec.Description,
			Scrapable:   scrapable,
		})
		if err != nil {
			return fmt.Errorf("insert %s: %w", rec.URL, err)
		}
	}

	if err := tx.LinkQueryURL(ctx, queryID, urlID); err != nil {
		return fmt.Errorf("link %s: %w", rec.URL, err)
	}

	freqs, tag := p.measure(ctx, rec.URL, ctype, scrapable, summary, log)

	for kw, n := range freqs {
		err := tx.UpsertKeywordCount(ctx, &catalog.KeywordCount{
			URLID:      urlID,
			Keyword:    kw,
			Occurrence: n,
			Tag:        tag,
		})
		if err != nil {
			return fmt.Errorf("store counts for %s: %w", rec.URL, err)
		}
	}
	return nil
}

// measure never fails the run: unreachable or disallowed URLs fall back to a
// zero-filled frequency table so the catalogue rows still exist.
func (p *Pipeline) measure(ctx context.Context, rawURL string, ctype catalog.ContentType, scrapable bool, summary *RunSummary, log *slog.Logger) (matcher.Frequencies, catalog.KeywordTag) {
	tag := ctype.Tag()
	if !scrapable {
		summary.Skipped++
		metrics.RecordMeasured(string(ctype), "skipped", 0)
		return matcher.ZeroFill(summary.Keywords), tag
	}

	start := time.Now()
	freqs, tag, err := p.measurer.Measure(ctx, rawURL, ctype, summary.Keywords)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, matcher.ErrNotFound):
		summary.NotFoundURLs = append(summary.NotFoundURLs, rawURL)
		metrics.RecordMeasured(string(ctype), "not_found", elapsed)
		log.Debug("url gone", "url", rawURL)
		return matcher.ZeroFill(summary.Keywords), tag
	case err != nil:
		summary.Failed++
		metrics.RecordMeasured(string(ctype), "error", elapsed)
		log.Warn("measurement failed", "url", rawURL, "error", err)
		return matcher.ZeroFill(summary.Keywords), tag
	}

	summary.Measured++
	metrics.RecordMeasured(string(ctype), "measured", elapsed)
	return freqs, tag
}
