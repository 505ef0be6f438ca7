package extract

import (
	"context"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

// generic scans the embed page for any .m3u8 or .mp4 URL, unpacking packed
// scripts first. referer is the episode page the embed came from.
func (d *Dispatcher) generic(ctx context.Context, embedURL, referer string) ([]media.Source, error) {
	if referer == "" {
		referer = embedURL
	}
	html, err := d.page(ctx, embedURL, referer)
	if err != nil {
		return nil, err
	}

	u := scanMedia(unpackAll(html))
	if u == "" {
		return nil, ErrNoMatch
	}
	return single(httputil.NormalizeURL(u, embedURL), d.headers(embedURL)), nil
}
