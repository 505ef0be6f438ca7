package extract

import (
	"context"
	"regexp"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var filemoonFile = []*regexp.Regexp{
	regexp.MustCompile(`(?s)file\s*:\s*"([^"]+\.m3u8[^"]*)"`),
	regexp.MustCompile(`(https?://[^"'\s]+/master\.m3u8[^"'\s]*)`),
}

// filemoon follows the player iframe, unpacks its scripts and reads the
// HLS manifest URL.
func (d *Dispatcher) filemoon(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}

	pageURL := embedURL
	if src := firstSubmatch(html, iframePattern); src != "" {
		pageURL = httputil.NormalizeURL(src, embedURL)
		headers := d.headers(embedURL)
		headers["Sec-Fetch-Dest"] = "iframe"
		resp, err := d.fetch(ctx, pageURL, headers)
		if err != nil {
			return nil, err
		}
		html = resp.Text()
	}

	if u := firstSubmatch(unpackAll(html), filemoonFile...); u != "" {
		return []media.Source{{URL: u, Type: media.HLS, Headers: d.headers(httputil.Origin(pageURL) + "/")}}, nil
	}
	return nil, ErrNoMatch
}
