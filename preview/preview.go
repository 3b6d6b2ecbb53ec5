// Package preview builds link previews for product URLs a user pastes, so the
// client can show what will be imported before asking the backend to scrape it.
package preview

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/utils"
)

// ErrBlocked means the retailer served a bot check instead of the page.
var ErrBlocked = errors.New("page is behind a bot check")

// Fetcher downloads product pages.
type Fetcher struct {
	Client *http.Client
	Logger *log.Logger
}

// NewFetcher returns a Fetcher with a browser-like HTTP/1.1 transport. Several
// retailers reset HTTP/2 connections from non-browser clients.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		Logger: log.Default(),
	}
}

// Preview resolves shortened links, fetches the page and extracts its card.
func (f *Fetcher) Preview(ctx context.Context, rawURL string) (models.LinkPreview, error) {
	var logMessageBuilder strings.Builder
	defer func() {
		f.logger().Print(logMessageBuilder.String())
	}()
	utils.AddToLogMessagef(&logMessageBuilder, "[Preview] %s", rawURL)

	resolved, err := utils.ResolveShortenedURL(ctx, f.Client, rawURL)
	if err != nil {
		utils.AddToLogMessagef(&logMessageBuilder, "could not resolve, using as is: %v", err)
		resolved = rawURL
	} else if resolved != rawURL {
		utils.AddToLogMessagef(&logMessageBuilder, "resolved to %s", resolved)
	}

	doc, err := f.FetchDocument(ctx, resolved)
	if err != nil {
		utils.AddToLogMessagef(&logMessageBuilder, "fetch failed: %v", err)
		return models.LinkPreview{}, err
	}
	if !isValidDocument(doc) {
		utils.AddToLogMessage(&logMessageBuilder, "blocked")
		return models.LinkPreview{}, fmt.Errorf("%s: %w", resolved, ErrBlocked)
	}

	p := Extract(doc, resolved)
	utils.AddToLogMessagef(&logMessageBuilder, "title %q", p.Title)
	return p, nil
}

// FetchDocument fetches rawURL with browser headers and parses the HTML.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", utils.BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}
	return goquery.NewDocumentFromReader(res.Body)
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger == nil {
		return log.Default()
	}
	return f.Logger
}

var blockedTitles = []string{"robot check", "captcha", "access denied", "are you a human"}

func isValidDocument(doc *goquery.Document) bool {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	for _, t := range blockedTitles {
		if strings.Contains(title, t) {
			return false
		}
	}
	if meta(doc, "og:title") != "" {
		return true
	}
	return len(strings.TrimSpace(doc.Find("body").Text())) > 200
}

// Extract reads the preview card from OpenGraph and product meta tags,
// falling back to the retailer's own markup and then to plain HTML.
func Extract(doc *goquery.Document, pageURL string) models.LinkPreview {
	p := models.LinkPreview{
		URL:         pageURL,
		SiteName:    meta(doc, "og:site_name"),
		Title:       meta(doc, "og:title"),
		Description: meta(doc, "og:description", "description", "twitter:description"),
		ImageURL:    meta(doc, "og:image", "og:image:url", "twitter:image"),
		Price:       meta(doc, "product:price:amount", "og:price:amount"),
		Currency:    meta(doc, "product:price:currency", "og:price:currency"),
	}

	retailer, supported := RetailerFor(pageURL)
	if supported {
		p.Retailer = retailer.Name
		if p.Title == "" {
			p.Title = firstText(doc, retailer.titleSelectors)
		}
		if p.Price == "" {
			p.Price = firstText(doc, retailer.priceSelectors)
		}
		if p.ImageURL == "" {
			p.ImageURL = firstAttr(doc, retailer.imageSelectors, "src")
		}
	}

	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if p.SiteName == "" {
		if u, err := url.Parse(pageURL); err == nil {
			p.SiteName = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	p.ImageURL = absoluteURL(pageURL, p.ImageURL)
	if p.Price != "" {
		if minor, err := utils.ParsePrice(p.Price); err == nil {
			p.PriceMinor = minor
		}
	}
	return p
}

// meta returns the first non-empty content among the named meta tags,
// matching both property= and name= attributes.
func meta(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		sel := fmt.Sprintf(`meta[property=%q], meta[name=%q], meta[itemprop=%q]`, name, name, name)
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

func absoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// ProductRef turns a preview into a cart product keyed by its URL. Currency
// defaults to INR, the only currency the backend's retailers price in.
func ProductRef(p models.LinkPreview) models.ProductRef {
	currency := p.Currency
	if currency == "" {
		currency = "INR"
	}
	return models.ProductRef{
		ID:       p.URL,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.PriceMinor,
		Currency: currency,
	}
}
