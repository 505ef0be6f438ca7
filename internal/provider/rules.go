package provider

import "regexp"

// Rules holds the selectors and fallback patterns for one revision of the
// site markup. Selectors are tried first; the patterns run on the raw HTML
// when a selector finds nothing.
type Rules struct {
	Version string

	SearchPath string
	Card       string
	CardMarker string
	CardTitle  string
	CardLink   string

	Story     string
	Genres    string
	Info      string
	TypeLabel string
	YearLabel string

	EpisodeLink string
	EpisodeCard string
	PageNumbers string

	ProviderLink string
	Frame        string

	CardHrefPattern   *regexp.Regexp
	CardImagePattern  *regexp.Regexp
	CardTitlePatterns []*regexp.Regexp
	StoryPattern      *regexp.Regexp
	GenresPattern     *regexp.Regexp
	GenrePattern      *regexp.Regexp
	YearPattern       *regexp.Regexp
	TypePattern       *regexp.Regexp
	PagePattern       *regexp.Regexp
	EpisodePattern    *regexp.Regexp
	ProviderPattern   *regexp.Regexp
	FramePattern      *regexp.Regexp
}

// DefaultRules matches the current site markup.
var DefaultRules = V2

// V2 is the markup served since the `ww.anime4up.rest` move.
var V2 = &Rules{
	Version: "v2",

	SearchPath: "/?search_param=animes&s=",
	Card:       ".anime-card-container",
	CardMarker: "anime-card-container",
	CardTitle:  ".anime-card-title h3 a",
	CardLink:   `a[href*="/anime/"]`,

	Story:     "p.anime-story",
	Genres:    "ul.anime-genres a",
	Info:      ".anime-info",
	TypeLabel: "النوع:",
	YearLabel: "بداية العرض:",

	EpisodeLink: ".episodes-card-title h3 a",
	EpisodeCard: ".episodes-card-container",
	PageNumbers: "a.page-numbers",

	ProviderLink: "[data-ep-url]",
	Frame:        "iframe[src]",

	CardHrefPattern:  regexp.MustCompile(`<a[^>]+href="([^"]*/anime/[^"]+)"`),
	CardImagePattern: regexp.MustCompile(`<img[^>]+(?:data-src|data-image|src)="([^"]+)"`),
	CardTitlePatterns: []*regexp.Regexp{
		regexp.MustCompile(`anime-card-title[^>]*>\s*<h3>\s*<a[^>]*>([^<]+)</a>`),
		regexp.MustCompile(`<a[^>]+title="([^"]+)"`),
		regexp.MustCompile(`<img[^>]+alt="([^"]+)"`),
	},
	StoryPattern:    regexp.MustCompile(`(?is)<p class="anime-story">(.*?)</p>`),
	GenresPattern:   regexp.MustCompile(`(?is)<ul class="anime-genres">(.*?)</ul>`),
	GenrePattern:    regexp.MustCompile(`<a[^>]*>([^<]+)</a>`),
	YearPattern:     regexp.MustCompile(`(?i)<span>\s*بداية العرض:\s*</span>\s*(\d{4})`),
	TypePattern:     regexp.MustCompile(`(?i)<div class="anime-info"><span>النوع:</span>\s*([^<]+)</div>`),
	PagePattern:     regexp.MustCompile(`/page/(\d+)/`),
	EpisodePattern:  regexp.MustCompile(`(?i)<a\s+href="([^"]+)">[^<]*?(?:الحلقة)?\s*(\d+)[^<]*</a>`),
	ProviderPattern: regexp.MustCompile(`(?is)<a\b[^>]*data-ep-url\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))[^>]*>(.*?)</a>`),
	FramePattern:    regexp.MustCompile(`(?i)<iframe[^>]+src\s*=\s*["']([^"']+)["']`),
}
