// Package crawler fetches hot-deal board listing pages and extracts
// normalized deal records. Every site shares one extraction engine;
// per-site differences live in SiteConfig data, not code.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
	"github.com/shonsungje/hotdeal-notifier/internal/util"
)

// Crawler is the uniform per-site adapter contract. A Crawl error means
// the whole listing fetch failed; partial extraction problems are
// handled row by row and never surface here.
type Crawler interface {
	Site() models.Site
	Crawl(ctx context.Context) ([]models.DealRecord, error)
}

// Selectors locates the listing rows and their fields. Empty entries
// mean the site does not expose that field; extraction falls back to the
// documented defaults.
type Selectors struct {
	Row          string
	IgnoreRow    string
	EndedMarker  string
	TitleLink    string
	Category     string
	Price        string
	Thumbnail    string
	CommentCount string
	PostedAt     string
}

// SiteConfig is everything that distinguishes one board from another.
type SiteConfig struct {
	Site      models.Site
	ListURL   string
	BaseURL   string
	Encoding  encoding.Encoding // nil means the page is already UTF-8
	Selectors Selectors

	// ExtractOriginID pulls the site's own post id out of an absolute
	// detail URL. Rows without one are dropped.
	ExtractOriginID func(absURL string) string

	// EndedTitleMarkers drop rows whose title announces a dead deal.
	EndedTitleMarkers []string

	// ThumbnailPlaceholders are substrings of known "no image" assets.
	ThumbnailPlaceholders []string
}

// One retry is enough for the flaky-connection case; a bot wall will
// fail identically on every attempt.
const fetchRetries = 1

type siteCrawler struct {
	cfg       SiteConfig
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// New builds a site adapter from its config. All adapters share the
// timeout and user agent; each gets its own polite rate limiter.
func New(cfg SiteConfig, timeout time.Duration, userAgent string) Crawler {
	return &siteCrawler{
		cfg:       cfg,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
		userAgent: userAgent,
	}
}

func (c *siteCrawler) Site() models.Site {
	return c.cfg.Site
}

func (c *siteCrawler) Crawl(ctx context.Context) ([]models.DealRecord, error) {
	var doc *goquery.Document
	err := util.RetryWithBackoff(ctx, fetchRetries, func(attempt int) error {
		if attempt > 0 {
			slog.Info("Retrying listing fetch", "site", c.cfg.Site, "attempt", attempt)
		}
		var err error
		doc, err = c.fetchListing(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s listing: %w", c.cfg.Site, err)
	}

	rows := doc.Find(c.cfg.Selectors.Row)
	if rows.Length() == 0 {
		// Not an error: markup changes and bot walls both look like this.
		slog.Warn("No listing rows found, selector may be stale",
			"site", c.cfg.Site, "selector", c.cfg.Selectors.Row)
		return nil, nil
	}

	now := time.Now()
	var deals []models.DealRecord
	rows.Each(func(_ int, row *goquery.Selection) {
		deal, ok := c.extractRow(row, now)
		if !ok {
			return
		}
		deals = append(deals, deal)
	})

	slog.Info("Crawl finished", "site", c.cfg.Site, "rows", rows.Length(), "deals", len(deals))
	return deals, nil
}

// extractRow turns one listing row into a DealRecord. Any per-row
// problem skips the row and never aborts the listing.
func (c *siteCrawler) extractRow(row *goquery.Selection, now time.Time) (deal models.DealRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Row extraction panicked, skipping row", "site", c.cfg.Site, "panic", r)
			ok = false
		}
	}()

	sel := c.cfg.Selectors

	if sel.IgnoreRow != "" && row.Is(sel.IgnoreRow) {
		return deal, false
	}
	if sel.EndedMarker != "" && row.Find(sel.EndedMarker).Length() > 0 {
		return deal, false
	}

	titleEl := row.Find(sel.TitleLink).First()
	if titleEl.Length() == 0 {
		return deal, false
	}

	// The title selector may land on the anchor itself, on a styling
	// element inside it (ppomppu wraps the title text in a font tag
	// under the link), or on a container above it. Prefer the
	// self-or-ancestor anchor, then fall back to a descendant one.
	titleLink := titleEl
	if !titleLink.Is("a") {
		titleLink = titleEl.Closest("a")
	}
	if titleLink.Length() == 0 {
		titleLink = titleEl.Find("a").First()
	}
	if titleLink.Length() == 0 {
		return deal, false
	}

	href, exists := titleLink.Attr("href")
	if !exists {
		return deal, false
	}
	absURL := util.AbsoluteURL(c.cfg.BaseURL, href)
	if absURL == "" {
		return deal, false
	}

	originID := c.cfg.ExtractOriginID(absURL)
	if originID == "" {
		return deal, false
	}

	if style, _ := titleLink.Attr("style"); strings.Contains(style, "line-through") {
		return deal, false
	}

	// Some boards nest the reply-count element inside the title link
	// (quasarzone); drop it before reading the text so the count never
	// leaks into the title.
	titleText := titleLink
	if sel.CommentCount != "" && titleText.Find(sel.CommentCount).Length() > 0 {
		titleText = titleText.Clone()
		titleText.Find(sel.CommentCount).Remove()
	}
	rawTitle := strings.TrimSpace(titleText.Text())
	for _, marker := range c.cfg.EndedTitleMarkers {
		if strings.Contains(rawTitle, marker) {
			return deal, false
		}
	}

	title := util.StripCommentBracket(rawTitle)

	category := models.CategoryOther
	if sel.Category != "" {
		if v := strings.TrimSpace(row.Find(sel.Category).First().Text()); v != "" {
			category = v
		}
	} else if tag, rest := util.SplitCategoryBracket(title); tag != "" {
		category = tag
		title = rest
	}
	if title == "" {
		return deal, false
	}

	price := models.PriceUnknown
	if sel.Price != "" {
		if v := strings.TrimSpace(row.Find(sel.Price).First().Text()); v != "" {
			price = v
		}
	}
	if price == models.PriceUnknown {
		if v := util.ExtractPrice(title); v != "" {
			price = v
		}
	}

	commentCount := 0
	if sel.CommentCount != "" {
		commentCount = util.SafeAtoi(util.LeadingDigits(row.Find(sel.CommentCount).First().Text()))
	}

	postedAt := now
	if sel.PostedAt != "" {
		raw := strings.TrimSpace(row.Find(sel.PostedAt).First().Text())
		if t, parsed := ParsePostedAt(raw, now); parsed {
			postedAt = t
		}
	}

	return models.DealRecord{
		Site:         c.cfg.Site,
		OriginID:     originID,
		Title:        title,
		Price:        price,
		URL:          absURL,
		ImageURL:     c.extractThumbnail(row),
		Category:     category,
		CommentCount: commentCount,
		PostedAt:     postedAt,
		CrawledAt:    now,
	}, true
}

func (c *siteCrawler) extractThumbnail(row *goquery.Selection) string {
	if c.cfg.Selectors.Thumbnail == "" {
		return ""
	}
	src, exists := row.Find(c.cfg.Selectors.Thumbnail).First().Attr("src")
	if !exists {
		return ""
	}
	for _, placeholder := range c.cfg.ThumbnailPlaceholders {
		if strings.Contains(src, placeholder) {
			return ""
		}
	}
	return util.AbsoluteURL(c.cfg.BaseURL, src)
}

func (c *siteCrawler) fetchListing(ctx context.Context) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ListURL, nil)
	if err != nil {
		return nil, err
	}
	// Boards like fmkorea block obvious bots; look like a browser.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Referer", c.cfg.BaseURL)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	var body io.Reader = res.Body
	if c.cfg.Encoding != nil {
		body = transform.NewReader(res.Body, c.cfg.Encoding.NewDecoder())
	}
	return goquery.NewDocumentFromReader(body)
}
