package extract

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"anime4up/internal/media"
)

var (
	vkHLS     = regexp.MustCompile(`"hls"\s*:\s*"([^"]+)"`)
	vkQuality = regexp.MustCompile(`"url(\d{3,4})"\s*:\s*"([^"]+)"`)
)

// vk returns the HLS manifest first, followed by the mp4 renditions from
// highest to lowest quality.
func (d *Dispatcher) vk(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}

	headers := d.headers("https://vk.com/")
	var sources []media.Source

	if m := vkHLS.FindStringSubmatch(html); m != nil {
		sources = append(sources, media.Source{Quality: "auto", URL: unescapeJS(m[1]), Type: media.HLS, Headers: headers})
	}

	renditions := lo.UniqBy(vkQuality.FindAllStringSubmatch(html, -1), func(m []string) string { return m[1] })
	sort.SliceStable(renditions, func(i, j int) bool {
		a, _ := strconv.Atoi(renditions[i][1])
		b, _ := strconv.Atoi(renditions[j][1])
		return a > b
	})
	for _, m := range renditions {
		sources = append(sources, media.Source{Quality: m[1] + "p", URL: unescapeJS(m[2]), Type: media.MP4, Headers: headers})
	}

	if len(sources) == 0 {
		return nil, ErrNoMatch
	}
	return sources, nil
}
