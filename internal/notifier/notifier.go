// Package notifier fans keyword matches out as push notifications.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

// UserDirectory resolves the users behind matched subscriptions.
type UserDirectory interface {
	UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

type Notifier struct {
	messenger Messenger
	users     UserDirectory
}

func New(messenger Messenger, users UserDirectory) *Notifier {
	return &Notifier{messenger: messenger, users: users}
}

// Notify attempts one delivery per match. Users without a token are
// skipped silently; a failed delivery is logged and never affects
// sibling deliveries or the already-persisted records. No retries here.
func (n *Notifier) Notify(ctx context.Context, matches []models.Match) {
	if len(matches) == 0 {
		return
	}

	seen := make(map[string]bool)
	var ids []string
	for _, m := range matches {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}

	users, err := n.users.UsersByIDs(ctx, ids)
	if err != nil {
		slog.Error("Failed to resolve users for notification", "error", err)
		return
	}

	sent, skipped := 0, 0
	for _, m := range matches {
		user, ok := users[m.UserID]
		if !ok || user.FCMToken == "" {
			skipped++
			continue
		}

		msg := Message{
			Title: fmt.Sprintf("🔥 핫딜 알림: [%s]", m.Keyword),
			Body:  m.Deal.Title,
			Link:  m.Deal.URL,
		}
		if err := n.messenger.Send(ctx, user.FCMToken, msg); err != nil {
			if errors.Is(err, ErrUnavailable) {
				slog.Warn("Push delivery unavailable, skipping remaining notifications", "pending", len(matches)-sent-skipped)
				return
			}
			slog.Warn("Notification delivery failed", "user", m.UserID, "keyword", m.Keyword, "error", err)
			continue
		}
		sent++
		slog.Info("Notification sent", "user", m.UserID, "keyword", m.Keyword, "title", m.Deal.Title)
	}
	slog.Info("Notification fan-out complete", "matches", len(matches), "sent", sent, "skipped_no_token", skipped)
}
