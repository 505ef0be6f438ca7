package extract

import (
	"context"
	"regexp"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

const uqloadOrigin = "https://uqload.net"

var uqloadPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sources\s*:\s*\[\s*["']([^"']+\.mp4[^"']*)["']`),
	regexp.MustCompile(`(?i)sources\s*=\s*\[\s*["']([^"']+\.mp4[^"']*)["']`),
}

func (d *Dispatcher) uqload(ctx context.Context, embedURL string) ([]media.Source, error) {
	embedURL = httputil.NormalizeURL(embedURL, "")
	headers := d.headers(embedURL)
	headers["Origin"] = uqloadOrigin

	resp, err := d.fetch(ctx, embedURL, headers)
	if err != nil {
		return nil, err
	}
	html := resp.Text()

	u := firstSubmatch(html, uqloadPatterns...)
	if u == "" {
		u = mp4URLPattern.FindString(html)
	}
	if u == "" {
		return nil, ErrNoMatch
	}

	return single(httputil.NormalizeURL(u, embedURL), headers), nil
}
