package util

import (
	"net/url"
	"strings"
)

// AbsoluteURL resolves a scraped href or src against the site's base URL.
// Handles protocol-relative ("//cdn...") and root-relative ("/view...")
// forms. Returns "" for unusable input.
func AbsoluteURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

// QueryParam extracts a single query parameter from a raw URL, returning
// "" when absent or unparseable.
func QueryParam(rawURL, key string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(key)
}
