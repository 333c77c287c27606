// Package matcher computes which subscribed users should hear about
// which newly ingested deals.
package matcher

import (
	"strings"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

// Match scans every new record against every active subscription.
// Keywords are stored case-normalized, so only the title is lowered, and
// only once per record. A user gets at most one match per record: the
// first of their keywords to hit wins, in subscription order. This is
// deliberate substring containment, not tokenized search — "4070"
// matching inside "RTX 4070 Ti" is the point, and the occasional false
// positive inside an unrelated word is accepted.
func Match(records []models.DealRecord, subs []models.Subscription) []models.Match {
	var matches []models.Match

	for _, record := range records {
		titleLower := strings.ToLower(record.Title)
		seen := make(map[string]bool)

		for _, sub := range subs {
			if !sub.IsActive || sub.Keyword == "" {
				continue
			}
			if seen[sub.UserID] {
				continue
			}
			if strings.Contains(titleLower, sub.Keyword) {
				seen[sub.UserID] = true
				matches = append(matches, models.Match{
					Deal:    record,
					UserID:  sub.UserID,
					Keyword: sub.Keyword,
				})
			}
		}
	}
	return matches
}
