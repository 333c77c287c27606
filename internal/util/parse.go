package util

import (
	"regexp"
	"strconv"
	"strings"
)

func SafeAtoi(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var leadingDigitsRegex = regexp.MustCompile(`^\d+`)

// LeadingDigits extracts the run of digits a string starts with, after
// trimming whitespace and bracket characters. Comment counts on the
// boards appear as "[12]" or "12".
func LeadingDigits(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return r == '[' || r == ']' || r == '(' || r == ')' || r == ' ' || r == '\n' || r == '\t'
	})
	return leadingDigitsRegex.FindString(s)
}

var trailingCommentBracket = regexp.MustCompile(`\s*\[\d+\]\s*$`)

// StripCommentBracket removes a trailing "[12]" style reply-count
// decoration from a post title. Square brackets at the tail are always a
// comment count on these boards, never a price.
func StripCommentBracket(title string) string {
	return strings.TrimSpace(trailingCommentBracket.ReplaceAllString(title, ""))
}

var leadingCategoryBracket = regexp.MustCompile(`^\s*\[([^\[\]]{1,20})\]\s*`)

// SplitCategoryBracket peels a leading "[쿠팡]" style category tag off a
// title. Returns the tag (may be empty) and the remaining title.
func SplitCategoryBracket(title string) (category, rest string) {
	m := leadingCategoryBracket.FindStringSubmatch(title)
	if m == nil {
		return "", strings.TrimSpace(title)
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(title[len(m[0]):])
}

var parenGroup = regexp.MustCompile(`\(([^()]*)\)`)

// currencyIndicator gates price recognition. A parenthesized substring
// counts as a price only when it carries both digits and one of these
// markers; "(10%)" or "(무료)" alone never qualifies.
var currencyIndicators = []string{"원", "₩", "$", "달러", "엔", "유로", "€", "¥"}

// ExtractPrice pulls a best-effort price from parenthesized substrings of
// a title, e.g. "RTX 4070 (599,000원/무료)". Returns "" when no
// currency-bearing group is found.
func ExtractPrice(title string) string {
	for _, m := range parenGroup.FindAllStringSubmatch(title, -1) {
		candidate := strings.TrimSpace(m[1])
		if candidate == "" || !strings.ContainsAny(candidate, "0123456789") {
			continue
		}
		for _, ind := range currencyIndicators {
			if strings.Contains(candidate, ind) {
				return candidate
			}
		}
	}
	return ""
}
