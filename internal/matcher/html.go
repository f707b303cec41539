package matcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/magpie/internal/fetch"
)

// boilerplate selectors stripped before visible text is measured.
const strippedSelectors = "script, style, nav, footer, header, iframe, noscript"

// HTMLSource measures pages by fetching them and counting keywords in the
// visible text.
type HTMLSource struct {
	client *fetch.Client
}

func NewHTMLSource(client *fetch.Client) *HTMLSource {
	return &HTMLSource{client: client}
}

var _ PageFrequencer = (*HTMLSource)(nil)

func (h *HTMLSource) PageFrequencies(ctx context.Context, rawURL string, keywords []string) (Frequencies, error) {
	resp, err := h.client.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	text, err := visibleText(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return TextFrequencies(text, keywords), nil
}

func visibleText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find(strippedSelectors).Remove()
	return doc.Text(), nil
}
