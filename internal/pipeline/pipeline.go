// Package pipeline orchestrates one crawl cycle:
// fetch → persist → match → notify.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shonsungje/hotdeal-notifier/internal/matcher"
	"github.com/shonsungje/hotdeal-notifier/internal/models"
	"github.com/shonsungje/hotdeal-notifier/internal/validator"
)

type Pipeline struct {
	fetcher        DealFetcher
	store          DealStore
	notifier       MatchNotifier
	validate       *validator.DealValidator
	maxStoredDeals int

	// Guards against overlapping cycles. Store-level dedup would make
	// overlap correct anyway, just wasteful, so stragglers are skipped.
	mu sync.Mutex
}

func New(fetcher DealFetcher, store DealStore, notifier MatchNotifier, maxStoredDeals int) *Pipeline {
	return &Pipeline{
		fetcher:        fetcher,
		store:          store,
		notifier:       notifier,
		validate:       validator.New(),
		maxStoredDeals: maxStoredDeals,
	}
}

// Start runs one cycle immediately, then one per interval until the
// context is cancelled.
func (p *Pipeline) Start(ctx context.Context, interval time.Duration) {
	slog.Info("Crawl scheduler started", "interval", interval)
	p.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Crawl scheduler stopped")
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle executes one fetch → persist → match → notify pass. A cycle
// still in flight causes the new invocation to be skipped. Degraded
// steps (store down, no subscriptions readable) end the cycle early but
// never crash the process.
func (p *Pipeline) RunCycle(ctx context.Context) {
	if !p.mu.TryLock() {
		slog.Info("Previous cycle still in flight, skipping this invocation")
		return
	}
	defer p.mu.Unlock()

	start := time.Now()
	slog.Info("Crawl cycle started")

	records := p.fetcher.RunAll(ctx)

	valid := records[:0:0]
	for _, rec := range records {
		if err := p.validate.ValidateDeal(rec); err != nil {
			slog.Warn("Dropping invalid record", "site", rec.Site, "originId", rec.OriginID, "error", err)
			continue
		}
		valid = append(valid, rec)
	}

	inserted, err := p.store.InsertBatch(ctx, valid)
	if err != nil {
		// Infrastructure error. Whatever did get inserted still flows on.
		slog.Error("Persisting deal batch failed", "error", err)
	}

	if len(inserted) > 0 {
		p.matchAndNotify(ctx, inserted)

		if err := p.store.TrimOldDeals(ctx, p.maxStoredDeals); err != nil {
			slog.Warn("Failed to trim old deals", "error", err)
		}
	}

	slog.Info("Crawl cycle finished",
		"crawled", len(records), "new", len(inserted), "took", time.Since(start).Round(time.Millisecond))
}

func (p *Pipeline) matchAndNotify(ctx context.Context, inserted []models.DealRecord) {
	subs, err := p.store.ActiveSubscriptions(ctx)
	if err != nil {
		slog.Error("Failed to load active subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	matches := matcher.Match(inserted, subs)
	slog.Info("Keyword matching complete", "new_deals", len(inserted), "subscriptions", len(subs), "matches", len(matches))
	p.notifier.Notify(ctx, matches)
}
