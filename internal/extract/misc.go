package extract

import (
	"context"
	"encoding/json"
	"regexp"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var (
	yourUploadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`file\s*:\s*['"]([^'"]+)['"]`),
		regexp.MustCompile(`<meta[^>]+property=["']og:video["'][^>]+content=["']([^"']+)["']`),
	}
	sendvidPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<source[^>]+src=["']([^"']+)["']`),
		regexp.MustCompile(`<meta[^>]+property=["']og:video(?::secure_url)?["'][^>]+content=["']([^"']+)["']`),
		regexp.MustCompile(`var\s+video_source\s*=\s*["']([^"']+)["']`),
	}
	streamWishPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)sources\s*:\s*\[\s*\{\s*file\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`file\s*:\s*["']([^"']+\.m3u8[^"']*)["']`),
	}
	megamaxPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)sources\s*:\s*\[\s*\{\s*(?:src|file)\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`<source[^>]+src=["']([^"']+)["']`),
	}
	dailymotionID      = regexp.MustCompile(`(?:dailymotion\.com/(?:embed/)?video/|dai\.ly/)([A-Za-z0-9]+)`)
	dailymotionPattern = regexp.MustCompile(`"url"\s*:\s*"(https?:[^"]+\.m3u8[^"]*)"`)
)

const dailymotionMetadata = "https://www.dailymotion.com/player/metadata/video/"

// lookup returns the first URL matched by patterns,
// falling back to any media-shaped URL in the page.
func (d *Dispatcher) lookup(embedURL, html string, patterns ...*regexp.Regexp) ([]media.Source, error) {
	u := firstSubmatch(html, patterns...)
	if u == "" {
		u = scanMedia(html)
	}
	if u == "" {
		return nil, ErrNoMatch
	}
	return single(httputil.NormalizeURL(unescapeJS(u), embedURL), d.headers(httputil.Origin(embedURL)+"/")), nil
}

func (d *Dispatcher) yourupload(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}
	return d.lookup(embedURL, html, yourUploadPatterns...)
}

func (d *Dispatcher) sendvid(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}
	return d.lookup(embedURL, html, sendvidPatterns...)
}

func (d *Dispatcher) streamwish(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}
	return d.lookup(embedURL, unpackAll(html), streamWishPatterns...)
}

func (d *Dispatcher) megamax(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}
	return d.lookup(embedURL, html, megamaxPatterns...)
}

// dailymotion asks the player metadata API and falls back to scanning the
// embed page.
func (d *Dispatcher) dailymotion(ctx context.Context, embedURL string) ([]media.Source, error) {
	m := dailymotionID.FindStringSubmatch(embedURL)
	if m == nil {
		return nil, ErrNoMatch
	}
	headers := d.headers("https://www.dailymotion.com/")

	if resp, err := d.fetch(ctx, dailymotionMetadata+m[1], headers); err == nil {
		var meta struct {
			Qualities map[string][]struct {
				Type string `json:"type"`
				URL  string `json:"url"`
			} `json:"qualities"`
		}
		if json.Unmarshal(resp.Body, &meta) == nil {
			if auto := meta.Qualities["auto"]; len(auto) > 0 && auto[0].URL != "" {
				return []media.Source{{Quality: "auto", URL: auto[0].URL, Type: media.HLS, Headers: headers}}, nil
			}
		}
		if u := firstSubmatch(resp.Text(), dailymotionPattern); u != "" {
			return []media.Source{{URL: unescapeJS(u), Type: media.HLS, Headers: headers}}, nil
		}
	}

	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}
	if u := firstSubmatch(html, dailymotionPattern); u != "" {
		return []media.Source{{URL: unescapeJS(u), Type: media.HLS, Headers: headers}}, nil
	}
	return nil, ErrNoMatch
}
