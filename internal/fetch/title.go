package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxTitleLen = 500

// PageTitle fetches the HTML <title> of targetURL, falling back to the URL's
// host on any failure or when the page carries no usable title. It never
// returns an error: a title lookup is best-effort decoration.
func (c *Client) PageTitle(ctx context.Context, targetURL string) string {
	fallback := hostOf(targetURL)

	resp, err := c.Get(ctx, targetURL)
	if err != nil || resp.StatusCode != http.StatusOK {
		return fallback
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return fallback
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return fallback
	}
	if len(title) > maxTitleLen {
		// Cut on a rune boundary so the stored title stays valid UTF-8.
		cut := maxTitleLen
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	return title
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
