package provider

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	digits       = regexp.MustCompile(`\d+`)
	episodeLabel = regexp.MustCompile(`الحلقة\s*(\d+)`)
	movieType    = regexp.MustCompile(`(?i)movie|فيلم`)
	yearOnly     = regexp.MustCompile(`^\d{4}$`)
)

// parseSearchResults extracts the anime cards of a search page. The card
// selector is tried first; without it the raw HTML is split on the card
// marker and each block is matched with the fallback patterns.
//
// Text is decoded exactly once: titles read from the raw markup go through
// DecodeHTMLEntities, titles read through goquery keep the parser's decoding.
func parseSearchResults(doc *goquery.Document, html string, r *Rules, base string) []media.SearchResult {
	var results []media.SearchResult
	blocks := strings.Split(html, r.CardMarker)[1:]

	cards := doc.Find(r.Card)
	if cards.Length() > 0 {
		aligned := len(blocks) == cards.Length()
		cards.Each(func(i int, s *goquery.Selection) {
			link := s.Find(r.CardLink).First()
			img := s.Find("img").First()

			var title string
			if aligned {
				title = rawCardTitle(blocks[i], r)
			}
			if title == "" {
				title = lo.CoalesceOrEmpty(
					collapse(s.Find(r.CardTitle).First().Text()),
					strings.TrimSpace(link.AttrOr("title", "")),
					strings.TrimSpace(img.AttrOr("alt", "")),
				)
			}

			results = appendCard(results, title, link.AttrOr("href", ""), imageOf(img), base)
		})
		return results
	}

	for _, block := range blocks {
		href := submatch(r.CardHrefPattern, block)
		image := submatch(r.CardImagePattern, block)
		results = appendCard(results, rawCardTitle(block, r), href, image, base)
	}
	return results
}

// rawCardTitle matches the title patterns against one card's markup.
func rawCardTitle(block string, r *Rules) string {
	for _, p := range r.CardTitlePatterns {
		if title := collapse(httputil.DecodeHTMLEntities(submatch(p, block))); title != "" {
			return title
		}
	}
	return ""
}

// appendCard skips cards without a link or a title.
func appendCard(results []media.SearchResult, title, href, image, base string) []media.SearchResult {
	if title == "" || strings.TrimSpace(href) == "" {
		return results
	}
	return append(results, media.SearchResult{
		Title: title,
		Href:  httputil.NormalizeURL(href, base),
		Image: httputil.NormalizeURL(image, base),
	})
}

// parseDetails reads the story, genres and release year of an anime page.
func parseDetails(doc *goquery.Document, html string, r *Rules) media.Details {
	details := media.DefaultDetails()

	// raw markup first so entities are decoded once, by the fixed table
	story := httputil.CleanText(submatch(r.StoryPattern, html))
	if story == "" {
		story = collapse(doc.Find(r.Story).First().Text())
	}
	if story != "" {
		details.Description = story
	}

	var genres []string
	for _, m := range r.GenrePattern.FindAllStringSubmatch(submatch(r.GenresPattern, html), -1) {
		genres = append(genres, collapse(httputil.DecodeHTMLEntities(m[1])))
	}
	if len(lo.Compact(genres)) == 0 {
		genres = doc.Find(r.Genres).Map(func(_ int, s *goquery.Selection) string {
			return collapse(s.Text())
		})
	}
	genres = lo.Compact(genres)
	if len(genres) > 0 {
		details.Aliases = strings.Join(genres, ", ")
	}

	year := firstField(infoValue(doc, r, r.YearLabel))
	if !yearOnly.MatchString(year) {
		year = submatch(r.YearPattern, html)
	}
	if yearOnly.MatchString(year) {
		details.Airdate = media.Airdate(year)
	}

	return details
}

// isMovie reports whether the page's type field names a movie.
func isMovie(doc *goquery.Document, html string, r *Rules) bool {
	kind := infoValue(doc, r, r.TypeLabel)
	if kind == "" {
		kind = strings.TrimSpace(submatch(r.TypePattern, html))
	}
	return movieType.MatchString(kind)
}

// infoValue returns the text following label in the page's info rows, up
// to the next label span.
func infoValue(doc *goquery.Document, r *Rules, label string) string {
	var value string
	doc.Find(r.Info).EachWithBreak(func(_ int, info *goquery.Selection) bool {
		found := false
		var b strings.Builder
		info.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
			name := goquery.NodeName(c)
			if !found {
				text := collapse(c.Text())
				if idx := strings.Index(text, label); idx >= 0 && name != "#text" {
					found = true
					b.WriteString(text[idx+len(label):])
					b.WriteByte(' ')
				}
				return true
			}
			if name == "span" {
				return false
			}
			b.WriteString(c.Text())
			b.WriteByte(' ')
			return true
		})
		if !found {
			return true
		}
		value = collapse(b.String())
		return false
	})
	return value
}

// parseMaxPage returns the highest page number linked from the page.
func parseMaxPage(doc *goquery.Document, html string, r *Rules) int {
	var pages []int
	for _, m := range r.PagePattern.FindAllStringSubmatch(html, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			pages = append(pages, n)
		}
	}
	doc.Find(r.PageNumbers).Each(func(_ int, s *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil {
			pages = append(pages, n)
		}
	})
	return max(1, lo.Max(pages))
}

// parseEpisodes extracts the episode rows of one listing page.
func parseEpisodes(doc *goquery.Document, html string, r *Rules, base string) []media.EpisodeRef {
	var episodes []media.EpisodeRef

	doc.Find(r.EpisodeLink).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		title := collapse(s.Text())
		episodes = append(episodes, media.EpisodeRef{
			Href:   httputil.NormalizeURL(href, base),
			Number: episodeNumber(title),
			Title:  title,
			Image:  httputil.NormalizeURL(imageOf(s.Closest(r.EpisodeCard).Find("img").First()), base),
		})
	})
	if len(episodes) > 0 {
		return episodes
	}

	for _, m := range r.EpisodePattern.FindAllStringSubmatch(html, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		episodes = append(episodes, media.EpisodeRef{
			Href:   httputil.NormalizeURL(strings.TrimSpace(m[1]), base),
			Number: mo.Some(n),
		})
	}
	return episodes
}

// episodeNumber prefers the number after the episode label, then the last
// number in the text.
func episodeNumber(title string) mo.Option[int] {
	s := submatch(episodeLabel, title)
	if s == "" {
		if all := digits.FindAllString(title, -1); len(all) > 0 {
			s = all[len(all)-1]
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return mo.None[int]()
	}
	return mo.Some(n)
}

// sortEpisodes drops duplicate hrefs (first wins) and orders by number with
// unnumbered episodes last.
func sortEpisodes(episodes []media.EpisodeRef) []media.EpisodeRef {
	episodes = lo.UniqBy(episodes, func(e media.EpisodeRef) string { return e.Href })
	sort.SliceStable(episodes, func(i, j int) bool {
		a, aok := episodes[i].Number.Get()
		b, bok := episodes[j].Number.Get()
		if aok != bok {
			return aok
		}
		return aok && a < b
	})
	return episodes
}

// parseProviders harvests the embed links of an episode page. Links are
// normalized, deduplicated and filtered against blocklist; when the page
// has none, the first non-blocked iframe is used.
func parseProviders(doc *goquery.Document, html string, r *Rules, pageURL string, blocklist []string) []media.Provider {
	var found []media.Provider

	doc.Find(r.ProviderLink).Each(func(_ int, s *goquery.Selection) {
		found = appendProvider(found, s.AttrOr("data-ep-url", ""), collapse(s.Text()), pageURL)
	})
	if len(found) == 0 {
		for _, m := range r.ProviderPattern.FindAllStringSubmatch(html, -1) {
			raw := lo.CoalesceOrEmpty(m[1], m[2], m[3])
			found = appendProvider(found, raw, httputil.CleanText(m[4]), pageURL)
		}
	}

	found = lo.UniqBy(found, func(p media.Provider) string { return p.URL })
	found = lo.Reject(found, func(p media.Provider, _ int) bool { return blocked(p, blocklist) })
	if len(found) > 0 {
		return found
	}

	frames := doc.Find(r.Frame).Map(func(_ int, s *goquery.Selection) string {
		return s.AttrOr("src", "")
	})
	if len(frames) == 0 {
		frames = lo.Map(r.FramePattern.FindAllStringSubmatch(html, -1), func(m []string, _ int) string { return m[1] })
	}
	for _, src := range lo.Compact(frames) {
		u := httputil.NormalizeURL(src, pageURL)
		p := media.Provider{URL: u, Title: httputil.Host(u)}
		if !blocked(p, blocklist) {
			return []media.Provider{p}
		}
	}
	return nil
}

func appendProvider(found []media.Provider, raw, title, pageURL string) []media.Provider {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return found
	}
	u := httputil.NormalizeURL(raw, pageURL)
	if title == "" {
		title = u
	}
	return append(found, media.Provider{URL: u, Title: title})
}

// blocked matches the blocklist case-insensitively against URL and title.
func blocked(p media.Provider, blocklist []string) bool {
	url, title := strings.ToLower(p.URL), strings.ToLower(p.Title)
	return lo.SomeBy(blocklist, func(kw string) bool {
		kw = strings.ToLower(strings.TrimSpace(kw))
		return kw != "" && (strings.Contains(url, kw) || strings.Contains(title, kw))
	})
}

func imageOf(img *goquery.Selection) string {
	return lo.CoalesceOrEmpty(
		strings.TrimSpace(img.AttrOr("src", "")),
		strings.TrimSpace(img.AttrOr("data-src", "")),
		strings.TrimSpace(img.AttrOr("data-image", "")),
	)
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// FormatDisplayTitle creates a display string for fzf selection.
func FormatDisplayTitle(r media.SearchResult) string {
	return r.Title
}

// FormatEpisodeTitle labels an episode for fzf selection.
func FormatEpisodeTitle(e media.EpisodeRef) string {
	label := "?"
	if n, ok := e.Number.Get(); ok {
		label = strconv.Itoa(n)
	}
	if e.Title != "" {
		return fmt.Sprintf("%s. %s", label, e.Title)
	}
	return "Episode " + label
}

// FormatStreamTitle labels a stream for fzf selection.
func FormatStreamTitle(s media.Stream) string {
	if s.Type == "" {
		return s.Title
	}
	return fmt.Sprintf("%s [%s]", s.Title, s.Type)
}
