package extract

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"anime4up/internal/media"
)

var (
	videaStatic = regexp.MustCompile(`(?:https?:)?//[^"'<>\s]*videa\.hu/static/(\d{3,4})p/[^"'<>\s]+`)
	videaBlob   = regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)
)

const videaPlayer = "https://videa.hu/player?v="

func (d *Dispatcher) videa(ctx context.Context, embedURL string) ([]media.Source, error) {
	u, err := url.Parse(embedURL)
	if err != nil {
		return nil, err
	}
	code := u.Query().Get("v")
	if code == "" {
		return nil, ErrNoMatch
	}

	html, err := d.page(ctx, videaPlayer+url.QueryEscape(code), embedURL)
	if err != nil {
		return nil, err
	}

	headers := d.headers("https://videa.hu/")
	if sources := videaRenditions(html, headers); len(sources) > 0 {
		return sources, nil
	}

	for _, blob := range videaBlob.FindAllString(html, -1) {
		b, err := atob(blob)
		if err != nil {
			continue
		}
		if sources := videaRenditions(string(b), headers); len(sources) > 0 {
			return sources, nil
		}
	}
	return nil, ErrNoMatch
}

// videaRenditions collects the static links in s, highest quality first.
func videaRenditions(s string, headers map[string]string) []media.Source {
	matches := videaStatic.FindAllStringSubmatch(unescapeJS(s), -1)
	matches = lo.UniqBy(matches, func(m []string) string { return m[0] })

	sources := lo.Map(matches, func(m []string, _ int) media.Source {
		link := m[0]
		if link[0] == '/' {
			link = "https:" + link
		}
		return media.Source{Quality: m[1] + "p", URL: link, Type: media.MP4, Headers: headers}
	})
	sort.SliceStable(sources, func(i, j int) bool {
		return qualityValue(sources[i].Quality) > qualityValue(sources[j].Quality)
	})
	return sources
}

func qualityValue(q string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(q, "p"))
	return n
}
