package matcher

import (
	"testing"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

func deal(title string) models.DealRecord {
	return models.DealRecord{Site: models.SiteFmkorea, OriginID: "1", Title: title}
}

func sub(userID, keyword string) models.Subscription {
	return models.Subscription{UserID: userID, Keyword: keyword, IsActive: true}
}

func TestMatch_SubstringContainment(t *testing.T) {
	records := []models.DealRecord{
		deal("RTX 4070 특가"),
		deal("노트북 할인"),
	}
	subs := []models.Subscription{sub("userA", "4070")}

	matches := Match(records, subs)
	if len(matches) != 1 {
		t.Fatalf("Expected exactly 1 match, got %d", len(matches))
	}
	if matches[0].UserID != "userA" || matches[0].Keyword != "4070" {
		t.Errorf("Match = %+v, want userA/4070", matches[0])
	}
	if matches[0].Deal.Title != "RTX 4070 특가" {
		t.Errorf("Matched wrong record: %q", matches[0].Deal.Title)
	}
}

func TestMatch_CaseInsensitiveTitle(t *testing.T) {
	records := []models.DealRecord{deal("NIKE 운동화 할인")}
	subs := []models.Subscription{sub("userA", "nike")}

	matches := Match(records, subs)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match for lower-cased keyword against upper-cased title, got %d", len(matches))
	}
}

func TestMatch_OneMatchPerUserPerRecord(t *testing.T) {
	records := []models.DealRecord{deal("RTX 4070 그래픽카드 특가")}
	subs := []models.Subscription{
		sub("userA", "4070"),
		sub("userA", "그래픽카드"),
		sub("userB", "그래픽카드"),
	}

	matches := Match(records, subs)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches (one per user), got %d", len(matches))
	}
	// First keyword in subscription order wins for userA.
	if matches[0].UserID != "userA" || matches[0].Keyword != "4070" {
		t.Errorf("userA match = %+v, want first keyword 4070", matches[0])
	}
	if matches[1].UserID != "userB" || matches[1].Keyword != "그래픽카드" {
		t.Errorf("userB match = %+v", matches[1])
	}
}

func TestMatch_IgnoresInactiveSubscriptions(t *testing.T) {
	records := []models.DealRecord{deal("RTX 4070 특가")}
	subs := []models.Subscription{
		{UserID: "userA", Keyword: "4070", IsActive: false},
	}

	if matches := Match(records, subs); len(matches) != 0 {
		t.Fatalf("Expected 0 matches for inactive subscription, got %d", len(matches))
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	if matches := Match(nil, []models.Subscription{sub("u", "x")}); len(matches) != 0 {
		t.Error("No records should yield no matches")
	}
	if matches := Match([]models.DealRecord{deal("아무거나")}, nil); len(matches) != 0 {
		t.Error("No subscriptions should yield no matches")
	}
}
