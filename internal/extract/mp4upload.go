package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var (
	mp4uploadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`player\.src\(\s*\{[^}]*?(?:file|src)\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`src\s*:\s*"([^"]+\.mp4[^"]*)"`),
		regexp.MustCompile(`file\s*:\s*"([^"]+\.mp4[^"]*)"`),
	}
	mp4uploadIndirect = regexp.MustCompile(`((?:https?:)?//[^"'\s]*)?(/get_video\?id=[^"'\s&]+)`)
)

func (d *Dispatcher) mp4upload(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}

	if u := firstSubmatch(html, mp4uploadPatterns...); u != "" {
		return single(httputil.NormalizeURL(u, embedURL), d.headers(embedURL)), nil
	}

	m := mp4uploadIndirect.FindStringSubmatch(html)
	if m == nil {
		return nil, ErrNoMatch
	}
	apiURL := httputil.NormalizeURL(m[1]+m[2], embedURL)

	resp, err := d.fetch(ctx, apiURL, d.headers(embedURL))
	if err != nil {
		return nil, err
	}
	var payload struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("parsing get_video response: %w", err)
	}
	if payload.File == "" {
		return nil, ErrNoMatch
	}

	return single(httputil.NormalizeURL(payload.File, embedURL), d.headers(embedURL)), nil
}
