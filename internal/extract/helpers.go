package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var (
	mediaURLPattern = regexp.MustCompile(`(?i)https?://[^"'<>\s]+\.(?:m3u8|mp4)[^"'<>\s]*`)
	mp4URLPattern   = regexp.MustCompile(`(?i)https?://[^"'<>\s]+\.mp4[^"'<>\s]*`)
	iframePattern   = regexp.MustCompile(`(?i)<iframe[^>]+src\s*=\s*["']([^"']+)["']`)
	packedPattern   = regexp.MustCompile(`(?s)eval\(function\(p,a,c,k,e,[dr]\).*?\.split\(\s*'\|'\s*\).*?\)\)`)
	jsUnicode       = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
)

// headers returns the default request headers for a source served behind referer.
func (d *Dispatcher) headers(referer string) map[string]string {
	return map[string]string{
		"Referer":    referer,
		"User-Agent": d.client.UserAgent(),
	}
}

// fetch GETs rawURL and fails with httputil.ErrNoResponse when nothing came back.
func (d *Dispatcher) fetch(ctx context.Context, rawURL string, headers map[string]string) (*httputil.Response, error) {
	resp := d.client.Get(ctx, rawURL, headers)
	if resp == nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, httputil.ErrNoResponse)
	}
	return resp, nil
}

// page GETs rawURL with the usual Referer/User-Agent pair and returns the body.
func (d *Dispatcher) page(ctx context.Context, rawURL, referer string) (string, error) {
	resp, err := d.fetch(ctx, rawURL, d.headers(referer))
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// firstSubmatch returns the first capture group of the first matching pattern.
func firstSubmatch(s string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(s); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return ""
}

// scanMedia finds the first .m3u8 or .mp4 URL in s.
func scanMedia(s string) string {
	return mediaURLPattern.FindString(unescapeJS(s))
}

// single wraps one URL as a source list.
func single(u string, headers map[string]string) []media.Source {
	return []media.Source{{URL: u, Type: media.TypeOf(u), Headers: headers}}
}

// unescapeJS undoes the `\/` and `\uXXXX` escapes of JS string literals.
func unescapeJS(s string) string {
	s = strings.ReplaceAll(s, `\/`, "/")
	return jsUnicode.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
}

// atob decodes standard base64 with or without padding.
func atob(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// unpackAll returns s with every packed script in it replaced by its
// unpacked form.
func unpackAll(s string) string {
	return packedPattern.ReplaceAllStringFunc(s, func(script string) string {
		if out, ok := Unpack(script); ok {
			return out
		}
		return script
	})
}
