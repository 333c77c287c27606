// Package aggregator fans crawl requests out to every site adapter and
// flattens whatever came back.
package aggregator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shonsungje/hotdeal-notifier/internal/crawler"
	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

type Aggregator struct {
	crawlers []crawler.Crawler
}

func New(crawlers []crawler.Crawler) *Aggregator {
	return &Aggregator{crawlers: crawlers}
}

// RunAll crawls every site concurrently. One site failing — or being
// blocked, or returning nothing — never affects the others; failed sites
// simply contribute no records. Cross-site order is unspecified.
func (a *Aggregator) RunAll(ctx context.Context) []models.DealRecord {
	results := make([][]models.DealRecord, len(a.crawlers))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range a.crawlers {
		g.Go(func() error {
			deals, err := c.Crawl(ctx)
			if err != nil {
				// Absorbed here so a sibling failure can't cancel the group.
				slog.Warn("Crawler failed", "site", c.Site(), "error", err)
				return nil
			}
			results[i] = deals
			return nil
		})
	}
	_ = g.Wait()

	var all []models.DealRecord
	for _, deals := range results {
		all = append(all, deals...)
	}
	slog.Info("Aggregation complete", "sites", len(a.crawlers), "deals", len(all))
	return all
}
