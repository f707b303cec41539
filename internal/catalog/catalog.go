// Package catalog defines the persisted data model of the aggregation
// catalogue and the transactional store contract its readers and writers
// share. Concrete stores live in the sqlite and postgres subpackages.
package catalog

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// ContentType classifies a catalogued URL by what its content is.
type ContentType string

const (
	ContentPage  ContentType = "page"
	ContentImage ContentType = "image"
)

// KeywordTag records which kind of content a keyword occurrence was measured
// against.
type KeywordTag string

const (
	TagText  KeywordTag = "text"
	TagImage KeywordTag = "image"
)

// imageExtensions must appear at the end of the URL path to classify a URL
// as an image.
var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".tiff": {},
	".webp": {}, ".ico": {}, ".jfif": {}, ".pjpeg": {}, ".pjp": {}, ".avif": {},
}

// ClassifyURL infers a URL's content type from its path suffix. Anything
// that does not end in a known image extension is a page.
func ClassifyURL(rawURL string) ContentType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ContentPage
	}
	path := strings.ToLower(u.Path)
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		if _, ok := imageExtensions[path[idx:]]; ok {
			return ContentImage
		}
	}
	return ContentPage
}

// Tag maps a content type to the keyword tag its occurrences carry.
func (c ContentType) Tag() KeywordTag {
	if c == ContentImage {
		return TagImage
	}
	return TagText
}

// Query is one ingestion run's record: the query text plus the
// consolidator's aggregate counters.
type Query struct {
	ID         int64
	Text       string
	TotalURLs  int
	UniqueURLs int
	Duplicates int
	AdsRemoved int
	CreatedAt  time.Time
}

// URL is one catalogued result. The URL string is unique across the whole
// catalogue; QueryID points at the run that first observed it. Engines holds
// every engine that listed the URL, in first-seen order.
type URL struct {
	ID          int64
	QueryID     int64
	URL         string
	Engines     []string
	Type        ContentType
	Domain      string
	Title       string
	Description string
	Scrapable   bool
	CreatedAt   time.Time
}

// KeywordCount is one measured keyword occurrence for a URL. A zero
// occurrence is stored explicitly: it means "evaluated, not present", which
// is distinct from never having been evaluated at all.
type KeywordCount struct {
	ID         int64
	URLID      int64
	Keyword    string
	Occurrence int
	Tag        KeywordTag
}

// RankedURL is one ranking-query row: a catalogued URL annotated with its
// summed occurrences against the active keyword set.
type RankedURL struct {
	URL
	TotalOccurrences int
	TextMatches      int
	ImageMatches     int
}

// Store opens transactions against the catalogue and owns the underlying
// connection.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is one catalogue transaction. Writers (ingestion) and readers (ranking)
// each wrap their whole run in a single Tx; nothing is visible to other
// sessions until Commit. Store errors are surfaced unmodified.
//
// The keyword set methods manage the transaction-scoped set the ranking
// queries join against; DropKeywordSet must be called on every exit path
// that created one.
type Tx interface {
	InsertQuery(ctx context.Context, q *Query) (int64, error)
	SetQueryDuplicates(ctx context.Context, queryID int64, duplicates int) error
	// DeleteQuery removes a run. URLs first observed by it but also
	// referenced by later runs are reassigned, not deleted; unshared URLs
	// cascade away together with their keyword counts.
	DeleteQuery(ctx context.Context, queryID int64) error

	// FindURL looks up a catalogued URL by its URL string alone, across all
	// queries. Returns (nil, nil) when absent.
	FindURL(ctx context.Context, rawURL string) (*URL, error)
	InsertURL(ctx context.Context, u *URL) (int64, error)
	SetURLEngines(ctx context.Context, urlID int64, engines []string) error
	// LinkQueryURL records that a run referenced a URL, whether it inserted
	// or reused it.
	LinkQueryURL(ctx context.Context, queryID, urlID int64) error

	UpsertKeywordCount(ctx context.Context, kc *KeywordCount) error
	KeywordCounts(ctx context.Context, urlID int64) ([]KeywordCount, error)

	CreateKeywordSet(ctx context.Context, keywords []string) error
	DropKeywordSet(ctx context.Context) error
	CountMatchingURLs(ctx context.Context) (int, error)
	RankPage(ctx context.Context, limit, offset int) ([]RankedURL, error)
	KeywordBreakdown(ctx context.Context, urlID int64) ([]KeywordCount, error)

	Commit() error
	Rollback() error
}

// JoinEngines flattens an engine list for storage; SplitEngines restores it.
// Stored as a comma-separated string, matching the single text column the
// schema carries.
func JoinEngines(engines []string) string {
	return strings.Join(engines, ",")
}

func SplitEngines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
