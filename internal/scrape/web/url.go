package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/types"
	"internscan-engine/internal/scrape/util"
)

// URLFetcher downloads one page with browser-like headers.
type URLFetcher struct {
	c   *Client
	now func() time.Time
}

func NewURLFetcher(c *Client) *URLFetcher {
	return &URLFetcher{c: c, now: time.Now}
}

func (f *URLFetcher) Name() string { return domain.SourceURL }

func (f *URLFetcher) Fetch(ctx context.Context, src domain.Source) (types.Document, error) {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/markdown;q=0.8,*/*;q=0.7")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Upgrade-Insecure-Requests", "1")

	res, err := f.c.Get(ctx, src.Target, h)
	if err != nil {
		return types.Document{}, fmt.Errorf("%s: %v: %w", src.Name(), err, types.ErrUnavailable)
	}
	if res.Status < 200 || res.Status > 299 {
		return types.Document{}, fmt.Errorf("%s: status %d: %w", src.Name(), res.Status, types.ErrUnavailable)
	}

	body := string(res.Body)
	if isHTML(res.ContentType, res.Body) {
		body = absolutizeLinks(body, res.URL)
	}

	return types.Document{
		SourceID:    src.Name(),
		URL:         res.URL,
		ContentType: res.ContentType,
		Body:        body,
		FetchedAt:   f.now(),
	}, nil
}

// absolutizeLinks rewrites relative hrefs against base so extractors only
// ever see absolute application links. On parse failure the page is
// returned as is.
func absolutizeLinks(page, base string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return page
	}
	changed := false
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.Contains(href, "://") ||
			strings.HasPrefix(strings.ToLower(href), "mailto:") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		a.SetAttr("href", util.ResolveRef(base, href))
		changed = true
	})
	if !changed {
		return page
	}
	out, err := doc.Html()
	if err != nil {
		return page
	}
	return out
}
