package provider

import (
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime4up/internal/media"
)

const testBase = "https://ww.anime4up.rest"

func loadFixture(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + filename)
	require.NoError(t, err, "reading test fixture %s", filename)
	return string(data)
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseSearchResults(t *testing.T) {
	html := loadFixture(t, "search.html")
	results := parseSearchResults(parseHTML(t, html), html, DefaultRules, testBase)

	require.Len(t, results, 2)
	assert.Equal(t, media.SearchResult{
		Title: "One Piece",
		Href:  "https://ww.anime4up.rest/anime/one-piece/",
		Image: "https://ww.anime4up.rest/wp-content/uploads/2023/01/one-piece.jpg",
	}, results[0])
	assert.Equal(t, "Kaguya-sama: Love Is War – Ultra Romantic", results[1].Title)
	assert.Equal(t, "https://ww.anime4up.rest/anime/kaguya-sama-wa-kokurasetai/", results[1].Href)
	assert.Equal(t, "https://ww.anime4up.rest/wp-content/uploads/2023/02/kaguya.jpg", results[1].Image)
}

func TestParseSearchResultsMarkerFallback(t *testing.T) {
	html := `<section>
		<!-- anime-card-container --><div class="anime-card-title"><h3><a href="/anime/naruto/">Naruto &amp; Friends</a></h3></div><img src="/n.jpg">
		<!-- anime-card-container --><a href="/anime/bleach/" title="Bleach"></a>
		<!-- anime-card-container --><a href="/anime/no-title/"></a>
	</section>`

	results := parseSearchResults(parseHTML(t, html), html, DefaultRules, testBase)

	require.Len(t, results, 2)
	assert.Equal(t, "Naruto & Friends", results[0].Title)
	assert.Equal(t, "https://ww.anime4up.rest/anime/naruto/", results[0].Href)
	assert.Equal(t, "https://ww.anime4up.rest/n.jpg", results[0].Image)
	assert.Equal(t, "Bleach", results[1].Title)
	assert.Empty(t, results[1].Image)
}

func TestTextDecodedOnce(t *testing.T) {
	t.Run("card titles", func(t *testing.T) {
		html := `<div class="anime-card-container"><div class="anime-card-title"><h3><a href="/anime/tom/">Tom &amp;amp; Jerry</a></h3></div></div>
			<div class="anime-card-container"><div class="anime-card-title"><h3><a href="/anime/pokemon/">Pok&eacute;mon &#8211; XY</a></h3></div></div>`

		results := parseSearchResults(parseHTML(t, html), html, DefaultRules, testBase)
		require.Len(t, results, 2)
		assert.Equal(t, "Tom &amp; Jerry", results[0].Title)
		assert.Equal(t, "Pok&eacute;mon – XY", results[1].Title)
	})

	t.Run("story and genres", func(t *testing.T) {
		html := `<p class="anime-story">A &amp;lt;b&amp;gt; B &eacute;t&eacute;</p>
			<ul class="anime-genres"><li><a href="#">Rom &amp;amp; Com</a></li><li><a href="#">Caf&eacute;</a></li></ul>`

		details := parseDetails(parseHTML(t, html), html, DefaultRules)
		assert.Equal(t, "A &lt;b&gt; B &eacute;t&eacute;", details.Description)
		assert.Equal(t, "Rom &amp; Com, Caf&eacute;", details.Aliases)
	})

	t.Run("selector only markup keeps parser decoding", func(t *testing.T) {
		html := `<p class="anime-story extra">Tom &amp;amp; Jerry</p>`

		details := parseDetails(parseHTML(t, html), html, DefaultRules)
		assert.Equal(t, "Tom &amp; Jerry", details.Description)
	})
}

func TestParseSearchResultsEmpty(t *testing.T) {
	html := `<html><body><p>لا توجد نتائج</p></body></html>`
	assert.Empty(t, parseSearchResults(parseHTML(t, html), html, DefaultRules, testBase))
}

func TestParseDetails(t *testing.T) {
	t.Run("full page", func(t *testing.T) {
		html := loadFixture(t, "anime.html")
		details := parseDetails(parseHTML(t, html), html, DefaultRules)

		assert.Equal(t, `Monkey D. Luffy "Straw Hat" sets sail.`, details.Description)
		assert.Equal(t, "أكشن, مغامرات", details.Aliases)
		assert.Equal(t, "سنة العرض: 1999", details.Airdate)
	})

	t.Run("defaults", func(t *testing.T) {
		html := `<html><body><div class="anime-info"><span>بداية العرض:</span> قريبا</div></body></html>`
		assert.Equal(t, media.DefaultDetails(), parseDetails(parseHTML(t, html), html, DefaultRules))
	})
}

func TestIsMovie(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"english label", `<div class="anime-info"><span>النوع:</span> Movie</div>`, true},
		{"arabic label", `<div class="anime-info"><span>النوع:</span> فيلم</div>`, true},
		{"series", `<div class="anime-info"><span>النوع:</span> TV</div>`, false},
		{"no type", `<p>nothing</p>`, false},
		{"value in a link", `<div class="anime-info"><span>النوع:</span> <a href="/type/movie/">Movie</a></div>`, true},
		{"later row in same block", `<div class="anime-info"><span>النوع:</span> TV <span>الحالة:</span> Movie</div>`, false},
		{"inline value", `<div class="anime-info"><span>النوع: Movie</span></div>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isMovie(parseHTML(t, tt.html), tt.html, DefaultRules))
		})
	}
}

func TestParseMaxPage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{"no pagination", `<p></p>`, 1},
		{"path links", `<a href="/anime/x/page/2/">2</a><a href="/anime/x/page/7/">»</a>`, 7},
		{"page-number text only", `<a class="page-numbers" href="#">4</a>`, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMaxPage(parseHTML(t, tt.html), tt.html, DefaultRules))
		})
	}
}

func TestParseEpisodes(t *testing.T) {
	html := loadFixture(t, "anime.html")
	episodes := parseEpisodes(parseHTML(t, html), html, DefaultRules, testBase)

	require.Len(t, episodes, 2)
	assert.Equal(t, "https://ww.anime4up.rest/episode/one-piece-episode-3/", episodes[0].Href)
	assert.Equal(t, mo.Some(3), episodes[0].Number)
	assert.Equal(t, "الحلقة 3", episodes[0].Title)
	assert.Equal(t, "https://ww.anime4up.rest/wp-content/uploads/one-piece-3.jpg", episodes[0].Image)
}

func TestParseEpisodesPatternFallback(t *testing.T) {
	html := `<ul><li><a href="/episode/x-12/">الحلقة 12</a></li><li><a href="/episode/x-13/">Episode 13 END</a></li></ul>`
	episodes := parseEpisodes(parseHTML(t, html), html, DefaultRules, testBase)

	require.Len(t, episodes, 2)
	assert.Equal(t, mo.Some(12), episodes[0].Number)
	assert.Equal(t, "https://ww.anime4up.rest/episode/x-12/", episodes[0].Href)
	assert.Equal(t, mo.Some(13), episodes[1].Number)
}

func TestEpisodeNumber(t *testing.T) {
	tests := []struct {
		title string
		want  mo.Option[int]
	}{
		{"الحلقة 7", mo.Some(7)},
		{"الحلقة 1080 والأخيرة", mo.Some(1080)},
		{"Season 2 Episode 5", mo.Some(5)},
		{"الحلقة الخاصة", mo.None[int]()},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, episodeNumber(tt.title))
		})
	}
}

func TestSortEpisodes(t *testing.T) {
	in := []media.EpisodeRef{
		{Href: "/3", Number: mo.Some(3)},
		{Href: "/special", Number: mo.None[int]()},
		{Href: "/1", Number: mo.Some(1)},
		{Href: "/2", Number: mo.Some(2)},
		{Href: "/1", Number: mo.Some(99), Title: "duplicate"},
	}

	out := sortEpisodes(in)

	hrefs := make([]string, len(out))
	for i, e := range out {
		hrefs[i] = e.Href
	}
	assert.Equal(t, []string{"/1", "/2", "/3", "/special"}, hrefs)
	assert.Empty(t, out[0].Title)
}

func TestParseProviders(t *testing.T) {
	html := loadFixture(t, "episode.html")
	pageURL := "https://ww.anime4up.rest/episode/one-piece-episode-1/"

	providers := parseProviders(parseHTML(t, html), html, DefaultRules, pageURL, DefaultOptions().Blocklist)

	assert.Equal(t, []media.Provider{
		{URL: "https://www.mp4upload.com/embed-abc.html", Title: "mp4upload"},
		{URL: "https://uqload.io/embed-def.html", Title: "Uqload"},
		{URL: "https://videa.hu/player?v=zz", Title: "videa"},
	}, providers)
}

func TestParseProvidersIframeFallback(t *testing.T) {
	html := `<div>
		<iframe src="https://www.dailymotion.com/embed/video/x1"></iframe>
		<iframe src="//vidmoly.to/embed-abc.html"></iframe>
		<iframe src="https://sendvid.com/embed/x"></iframe>
	</div>`

	providers := parseProviders(parseHTML(t, html), html, DefaultRules, "https://ww.anime4up.rest/episode/x/", DefaultOptions().Blocklist)

	assert.Equal(t, []media.Provider{{URL: "https://vidmoly.to/embed-abc.html", Title: "vidmoly.to"}}, providers)
}

func TestBlocked(t *testing.T) {
	blocklist := []string{"mega", " DailyMotion ", ""}

	tests := []struct {
		name string
		p    media.Provider
		want bool
	}{
		{"url match", media.Provider{URL: "https://megamax.me/x", Title: "server"}, true},
		{"title match", media.Provider{URL: "https://dood.la/e/x", Title: "Mega HD"}, true},
		{"trimmed case-insensitive keyword", media.Provider{URL: "https://www.dailymotion.com/x", Title: "dm"}, true},
		{"allowed", media.Provider{URL: "https://voe.sx/e/x", Title: "voe"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blocked(tt.p, blocklist))
		})
	}
}

func TestFormatEpisodeTitle(t *testing.T) {
	assert.Equal(t, "3. الحلقة 3", FormatEpisodeTitle(media.EpisodeRef{Number: mo.Some(3), Title: "الحلقة 3"}))
	assert.Equal(t, "Episode 1", FormatEpisodeTitle(media.EpisodeRef{Number: mo.Some(1)}))
	assert.Equal(t, "Episode ?", FormatEpisodeTitle(media.EpisodeRef{}))
}
