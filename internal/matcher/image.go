package matcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/FranksOps/magpie/internal/fetch"
)

// TextExtractor pulls readable text out of raw image bytes. Implementations
// typically wrap an OCR engine.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// NopExtractor extracts nothing. Image URLs still get zero-filled catalogue
// rows when no OCR engine is configured.
type NopExtractor struct{}

func (NopExtractor) ExtractText(context.Context, []byte) (string, error) {
	return "", nil
}

// ImageSource measures images by fetching them and counting keywords in the
// OCR'd text.
type ImageSource struct {
	client    *fetch.Client
	extractor TextExtractor
}

func NewImageSource(client *fetch.Client, extractor TextExtractor) *ImageSource {
	if extractor == nil {
		extractor = NopExtractor{}
	}
	return &ImageSource{client: client, extractor: extractor}
}

var _ ImageFrequencer = (*ImageSource)(nil)

func (s *ImageSource) ImageFrequencies(ctx context.Context, rawURL string, keywords []string) (Frequencies, error) {
	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	text, err := s.extractor.ExtractText(ctx, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", rawURL, err)
	}
	return TextFrequencies(text, keywords), nil
}
