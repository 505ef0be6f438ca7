package extract

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var doodPassMD5 = regexp.MustCompile(`/pass_md5/[^'"\s<>]+`)

const doodAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// now is replaced in tests.
var now = time.Now

// doodstream exchanges the page's /pass_md5/ path for a URL stem, then
// appends a fresh random suffix, the path's token and an expiry timestamp.
func (d *Dispatcher) doodstream(ctx context.Context, embedURL string) ([]media.Source, error) {
	resp, err := d.fetch(ctx, embedURL, d.headers(embedURL))
	if err != nil {
		return nil, err
	}
	html := resp.Text()

	pass := doodPassMD5.FindString(html)
	if pass == "" {
		if u := mp4URLPattern.FindString(html); u != "" {
			return single(u, d.headers(embedURL)), nil
		}
		return nil, ErrNoMatch
	}

	origin := httputil.Origin(resp.URL)
	if origin == "" {
		origin = httputil.Origin(embedURL)
	}
	pageURL := resp.URL

	stemResp, err := d.fetch(ctx, origin+pass, d.headers(pageURL))
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSpace(stemResp.Text())
	if !strings.HasPrefix(stem, "http") {
		return nil, fmt.Errorf("unexpected pass_md5 response %q: %w", truncate(stem, 40), ErrNoMatch)
	}

	token := pass[strings.LastIndex(pass, "/")+1:]
	final := fmt.Sprintf("%s%s?token=%s&expiry=%d", stem, randomString(10), token, now().UnixMilli())

	return []media.Source{{URL: final, Type: media.MP4, Headers: d.headers(origin + "/")}}, nil
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = doodAlphabet[rand.IntN(len(doodAlphabet))]
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
