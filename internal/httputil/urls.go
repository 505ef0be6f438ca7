package httputil

import (
	"net/url"
	"regexp"
	"strings"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL turns protocol-relative, root-relative and bare-host strings
// into absolute URLs relative to base. Normalizing an already normalized URL
// returns it unchanged.
func NormalizeURL(raw, base string) string {
	if raw == "" {
		return raw
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if absoluteURL.MatchString(raw) {
		return raw
	}

	if base == "" {
		base = "https://"
	}
	if b, err := url.Parse(base); err == nil && b.Host != "" {
		if ref, err := url.Parse(raw); err == nil {
			if u := b.ResolveReference(ref); u.Host != "" && absoluteURL.MatchString(u.String()) {
				return u.String()
			}
		}
	}

	if strings.HasPrefix(raw, "/") {
		return "https://" + strings.TrimLeft(raw, "/")
	}
	return "https://" + raw
}

// Origin returns scheme://host of rawURL, or "" when it has no host.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

// Host returns the lower-cased host of rawURL without a leading "www.".
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
