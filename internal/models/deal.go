package models

import (
	"errors"
	"time"
)

// ErrDealExists is returned when attempting to persist a deal whose
// (site, origin id) identity is already stored.
var ErrDealExists = errors.New("deal already exists")

// Sentinels used when a source does not expose the field.
const (
	PriceUnknown  = "가격 정보 없음"
	CategoryOther = "기타"
)

// Site identifies an origin community board.
type Site string

const (
	SitePpomppu    Site = "ppomppu"
	SiteFmkorea    Site = "fmkorea"
	SiteQuasarzone Site = "quasarzone"
)

// DealRecord is one normalized hot-deal listing entry.
type DealRecord struct {
	Site         Site      `firestore:"site" json:"site" validate:"required"`
	OriginID     string    `firestore:"originId" json:"originId" validate:"required"`
	Title        string    `firestore:"title" json:"title" validate:"required"`
	Price        string    `firestore:"price" json:"price"`
	URL          string    `firestore:"url" json:"url" validate:"required,url"`
	ImageURL     string    `firestore:"imageUrl,omitempty" json:"imageUrl,omitempty" validate:"omitempty,url"`
	Category     string    `firestore:"category" json:"category"`
	CommentCount int       `firestore:"commentCount" json:"commentCount" validate:"gte=0"`
	PostedAt     time.Time `firestore:"postedAt" json:"postedAt" validate:"required"`
	CrawledAt    time.Time `firestore:"crawledAt" json:"crawledAt" validate:"required"`
}

// Key is the global dedup identity. Origin ids are only unique within a
// site, so the site name is always part of the key.
func (d DealRecord) Key() string {
	return string(d.Site) + ":" + d.OriginID
}

// Subscription is a user's interest in a keyword. Keywords are stored
// lower-cased; matching is plain substring containment.
type Subscription struct {
	UserID    string    `firestore:"userId"`
	Keyword   string    `firestore:"keyword"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// User is the slice of the user directory this service consumes. A user
// without an FCM token simply cannot be notified.
type User struct {
	ID       string `firestore:"-"`
	Email    string `firestore:"email"`
	Nickname string `firestore:"nickname,omitempty"`
	FCMToken string `firestore:"fcmToken,omitempty"`
}

// Match pairs a newly persisted deal with a subscribed user. Keyword is
// the first of the user's keywords that hit the title.
type Match struct {
	Deal    DealRecord
	UserID  string
	Keyword string
}
