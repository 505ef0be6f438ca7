package extract

import (
	"context"
	"regexp"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var (
	// vidmolyOptions are tried in order; the first label present wins.
	vidmolyOptions = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<option[^>]+value\s*=\s*["']([A-Za-z0-9+/=]+)["'][^>]*>\s*SUB\s*-\s*Omega\s*</option>`),
		regexp.MustCompile(`(?is)<option[^>]+value\s*=\s*["']([A-Za-z0-9+/=]+)["'][^>]*>\s*SUB\s*v2\s*</option>`),
		regexp.MustCompile(`(?is)<option[^>]+value\s*=\s*["']([A-Za-z0-9+/=]{16,})["']`),
	}
	vidmolySources = regexp.MustCompile(`(?s)sources\s*:\s*\[\s*\{\s*file\s*:\s*["']([^"']+)["']`)
)

func (d *Dispatcher) vidmoly(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}

	if frame := vidmolyFrame(html); frame != "" {
		frame = httputil.NormalizeURL(frame, embedURL)
		if inner, err := d.page(ctx, frame, embedURL); err == nil {
			if m := vidmolySources.FindStringSubmatch(inner); m != nil {
				return single(m[1], d.headers(httputil.Origin(frame)+"/")), nil
			}
		}
	}

	if m := vidmolySources.FindStringSubmatch(html); m != nil {
		return single(m[1], d.headers(httputil.Origin(embedURL)+"/")), nil
	}
	return nil, ErrNoMatch
}

// vidmolyFrame decodes the first labeled option blob into its iframe src.
func vidmolyFrame(html string) string {
	for _, p := range vidmolyOptions {
		for _, m := range p.FindAllStringSubmatch(html, -1) {
			b, err := atob(m[1])
			if err != nil {
				continue
			}
			if src := firstSubmatch(string(b), iframePattern); src != "" {
				return src
			}
		}
	}
	return ""
}
