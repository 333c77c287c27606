package pipeline

import (
	"context"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

// DealFetcher abstracts the concurrent multi-site crawl.
type DealFetcher interface {
	RunAll(ctx context.Context) []models.DealRecord
}

// DealStore abstracts the persistence layer for deals and subscriptions.
type DealStore interface {
	InsertBatch(ctx context.Context, records []models.DealRecord) ([]models.DealRecord, error)
	ActiveSubscriptions(ctx context.Context) ([]models.Subscription, error)
	TrimOldDeals(ctx context.Context, maxDeals int) error
}

// MatchNotifier abstracts the notification fan-out.
type MatchNotifier interface {
	Notify(ctx context.Context, matches []models.Match)
}
