package crawler

import (
	"regexp"
	"strings"
	"time"

	"github.com/shonsungje/hotdeal-notifier/internal/util"
)

var relativeAgo = regexp.MustCompile(`^(\d+)\s*(분|시간|초)\s*전$`)

// dateLayouts covers the formats the boards actually render. Year-less
// layouts resolve against now's year.
var dateLayouts = []string{
	"2006.01.02 15:04",
	"2006-01-02 15:04",
	"2006.01.02",
	"2006-01-02",
	"06.01.02",
	"06/01/02",
}

// ParsePostedAt interprets a board's posted-time cell. The boards render
// either a clock time for today's posts ("12:30"), a date for older ones
// ("2024.05.20"), or a relative age ("3분 전"). Returns ok=false when
// the text fits none of these; callers fall back to ingestion time.
func ParsePostedAt(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if m := relativeAgo.FindStringSubmatch(raw); m != nil {
		n := util.SafeAtoi(m[1])
		switch m[2] {
		case "초":
			return now.Add(-time.Duration(n) * time.Second), true
		case "분":
			return now.Add(-time.Duration(n) * time.Minute), true
		case "시간":
			return now.Add(-time.Duration(n) * time.Hour), true
		}
	}

	// Bare clock time means "posted today". A clock reading ahead of now
	// can only be yesterday's post still showing a time.
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			posted := time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, now.Location())
			if posted.After(now) {
				posted = posted.AddDate(0, 0, -1)
			}
			return posted, true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
