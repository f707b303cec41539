// Package matcher measures how often a query's keywords occur in the content
// behind a catalogued URL. HTML pages are scraped for visible text; images go
// through an OCR extractor first. Either way the result is a frequency table
// covering every requested keyword.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/magpie/internal/catalog"
)

// ErrNotFound reports that the remote resource answered 404. Callers treat
// this differently from transport failures.
var ErrNotFound = errors.New("resource not found")

// Frequencies maps a keyword to its occurrence count in one document.
type Frequencies map[string]int

// PageFrequencer measures keyword occurrences in an HTML page.
type PageFrequencer interface {
	PageFrequencies(ctx context.Context, rawURL string, keywords []string) (Frequencies, error)
}

// ImageFrequencer measures keyword occurrences in an image's extracted text.
type ImageFrequencer interface {
	ImageFrequencies(ctx context.Context, rawURL string, keywords []string) (Frequencies, error)
}

// Matcher dispatches measurement by content type.
type Matcher struct {
	pages  PageFrequencer
	images ImageFrequencer
	logger *slog.Logger
}

func New(pages PageFrequencer, images ImageFrequencer, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{pages: pages, images: images, logger: logger}
}

// Measure returns keyword frequencies for rawURL along with the tag the
// counts should be persisted under. Every keyword appears in the result,
// zero-filled when absent from the content.
func (m *Matcher) Measure(ctx context.Context, rawURL string, ctype catalog.ContentType, keywords []string) (Frequencies, catalog.KeywordTag, error) {
	tag := ctype.Tag()

	var (
		freqs Frequencies
		err   error
	)
	switch ctype {
	case catalog.ContentImage:
		freqs, err = m.images.ImageFrequencies(ctx, rawURL, keywords)
	case catalog.ContentPage:
		freqs, err = m.pages.PageFrequencies(ctx, rawURL, keywords)
	default:
		return nil, tag, fmt.Errorf("unknown content type %q", ctype)
	}
	if err != nil {
		return nil, tag, err
	}

	m.logger.Debug("measured url", "url", rawURL, "content_type", string(ctype))
	return freqs, tag, nil
}

// ZeroFill builds a frequency table with every keyword at zero. Used when a
// URL cannot be measured but still needs catalogue rows.
func ZeroFill(keywords []string) Frequencies {
	freqs := make(Frequencies, len(keywords))
	for _, kw := range keywords {
		freqs[kw] = 0
	}
	return freqs
}
