package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"anime4up/internal/extract"
	"anime4up/internal/httputil"
	"anime4up/internal/logger"
	"anime4up/internal/media"
)

// DefaultBase is the site the adapter targets unless configured otherwise.
const DefaultBase = "https://ww.anime4up.rest"

// Policy selects how a fan-out is scheduled.
type Policy string

const (
	Parallel   Policy = "parallel"
	Sequential Policy = "sequential"
	Batched    Policy = "batched"
)

// Options tunes the adapter.
type Options struct {
	Base           string
	Rules          *Rules
	Blocklist      []string
	Resolve        Policy
	MaxConcurrency int
	Pagination     Policy
	BatchSize      int
	BatchDelay     time.Duration
	EmbedFallback  bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Base:           DefaultBase,
		Rules:          DefaultRules,
		Blocklist:      []string{"mega", "megamax", "dailymotion"},
		Resolve:        Parallel,
		MaxConcurrency: 6,
		Pagination:     Batched,
		BatchSize:      5,
		BatchDelay:     500 * time.Millisecond,
		EmbedFallback:  true,
	}
}

// Anime4Up implements Provider for the Anime4Up site.
type Anime4Up struct {
	client    *httputil.Client
	extractor extract.Extractor
	opts      Options
}

// NewAnime4Up creates the adapter. A nil extractor resolves through an
// extract.Dispatcher sharing client.
func NewAnime4Up(client *httputil.Client, extractor extract.Extractor, opts Options) *Anime4Up {
	def := DefaultOptions()
	if opts.Base == "" {
		opts.Base = def.Base
	}
	opts.Base = strings.TrimRight(opts.Base, "/")
	if opts.Rules == nil {
		opts.Rules = def.Rules
	}
	if opts.Resolve == "" {
		opts.Resolve = def.Resolve
	}
	if opts.Pagination == "" {
		opts.Pagination = def.Pagination
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = def.MaxConcurrency
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if extractor == nil {
		extractor = extract.New(client)
	}
	return &Anime4Up{client: client, extractor: extractor, opts: opts}
}

// Base returns the site origin.
func (a *Anime4Up) Base() string {
	return a.opts.Base
}

// Search returns the anime cards matching keyword. A page without cards
// yields an empty slice.
func (a *Anime4Up) Search(ctx context.Context, keyword string) ([]media.SearchResult, error) {
	searchURL := a.opts.Base + a.opts.Rules.SearchPath + httputil.EncodeQuery(keyword)

	html, doc, err := a.fetchDocument(ctx, searchURL, a.opts.Base+"/")
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", keyword, err)
	}

	return parseSearchResults(doc, html, a.opts.Rules, a.opts.Base), nil
}

// Details returns the story, genres and release year of an anime page.
func (a *Anime4Up) Details(ctx context.Context, pageURL string) (*media.Details, error) {
	html, doc, err := a.fetchDocument(ctx, pageURL, a.opts.Base+"/")
	if err != nil {
		return nil, fmt.Errorf("getting details: %w", err)
	}

	details := parseDetails(doc, html, a.opts.Rules)
	return &details, nil
}

// Episodes lists every episode of an anime page across all listing pages.
// Movies yield a single entry pointing at the page itself.
func (a *Anime4Up) Episodes(ctx context.Context, pageURL string) ([]media.EpisodeRef, error) {
	html, doc, err := a.fetchDocument(ctx, pageURL, a.opts.Base+"/")
	if err != nil {
		return nil, fmt.Errorf("getting episodes: %w", err)
	}

	if isMovie(doc, html, a.opts.Rules) {
		return media.SingleEpisode(pageURL), nil
	}

	last := parseMaxPage(doc, html, a.opts.Rules)
	episodes := parseEpisodes(doc, html, a.opts.Rules, a.opts.Base)

	if last > 1 {
		urls := make([]string, 0, last-1)
		root := strings.TrimRight(pageURL, "/")
		for n := 2; n <= last; n++ {
			urls = append(urls, fmt.Sprintf("%s/page/%d/", root, n))
		}
		logger.Debug("fetching episode pages", "pages", last, "policy", a.opts.Pagination)

		for _, page := range a.fetchPages(ctx, urls, pageURL) {
			if page.doc == nil {
				continue
			}
			episodes = append(episodes, parseEpisodes(page.doc, page.html, a.opts.Rules, a.opts.Base)...)
		}
	}

	episodes = sortEpisodes(episodes)
	if len(episodes) == 0 {
		return media.SingleEpisode(pageURL), nil
	}
	return episodes, nil
}

type page struct {
	html string
	doc  *goquery.Document
}

// fetchPages downloads urls per the pagination policy. Failed pages are
// left empty; the result is index-aligned with urls.
func (a *Anime4Up) fetchPages(ctx context.Context, urls []string, referer string) []page {
	pages := make([]page, len(urls))

	fetch := func(i int) {
		html, doc, err := a.fetchDocument(ctx, urls[i], referer)
		if err != nil {
			logger.Debug("skipping episode page", "url", urls[i], "err", err)
			return
		}
		pages[i] = page{html: html, doc: doc}
	}

	switch a.opts.Pagination {
	case Sequential:
		for i := range urls {
			fetch(i)
		}
	case Batched:
		for _, batch := range lo.Chunk(lo.Range(len(urls)), a.opts.BatchSize) {
			if batch[0] > 0 && !sleep(ctx, a.opts.BatchDelay) {
				break
			}
			settle(len(batch), len(batch), func(j int) { fetch(batch[j]) })
		}
	default:
		settle(len(urls), a.opts.MaxConcurrency, fetch)
	}

	return pages
}

// Streams resolves an episode page into playable streams, in provider order.
func (a *Anime4Up) Streams(ctx context.Context, episodeURL string) ([]media.Stream, error) {
	html, doc, err := a.fetchDocument(ctx, episodeURL, episodeURL)
	if err != nil {
		return nil, fmt.Errorf("getting episode page: %w", err)
	}

	providers := parseProviders(doc, html, a.opts.Rules, episodeURL, a.opts.Blocklist)
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	logger.Debug("harvested providers", "url", episodeURL, "count", len(providers))

	results := make([][]media.Stream, len(providers))
	resolve := func(i int) {
		results[i] = a.resolve(ctx, providers[i], episodeURL)
	}

	if a.opts.Resolve == Sequential {
		for i := range providers {
			resolve(i)
		}
	} else {
		settle(len(providers), a.opts.MaxConcurrency, resolve)
	}

	return lo.Flatten(results), nil
}

// resolve turns one provider into streams. An unresolved provider yields
// nothing, or its embed URL when the embed fallback is on.
func (a *Anime4Up) resolve(ctx context.Context, p media.Provider, episodeURL string) []media.Stream {
	sources, err := a.extract(ctx, p, episodeURL)
	if err != nil || len(sources) == 0 {
		logger.Debug("provider unresolved", "provider", p.Title, "url", p.URL, "err", err)
		if !a.opts.EmbedFallback {
			return nil
		}
		return []media.Stream{{
			Title:     p.Title + " (embed)",
			StreamURL: p.URL,
			Headers: map[string]string{
				"Referer":    episodeURL,
				"User-Agent": a.client.UserAgent(),
			},
		}}
	}

	return lo.Map(sources, func(s media.Source, _ int) media.Stream {
		title := p.Title
		if len(sources) > 1 && s.Quality != "" {
			title += " - " + s.Quality
		}
		return media.Stream{Title: title, StreamURL: s.URL, Headers: s.Headers, Type: s.Type}
	})
}

// extract runs the extractor for one provider, turning a panic into an error.
func (a *Anime4Up) extract(ctx context.Context, p media.Provider, episodeURL string) (sources []media.Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			sources, err = nil, fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return a.extractor.Resolve(ctx, p.URL, episodeURL)
}

// fetchDocument fetches a URL and parses it into a goquery Document.
func (a *Anime4Up) fetchDocument(ctx context.Context, pageURL, referer string) (string, *goquery.Document, error) {
	html, err := a.client.Text(ctx, pageURL, map[string]string{"Referer": referer})
	if err != nil {
		return "", nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return html, doc, nil
}

// settle runs fn for 0..n-1 with at most limit in flight and waits for all
// of them. A branch never cancels its siblings; a panicking branch leaves its
// slot untouched.
func settle(n, limit int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(max(1, limit))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("recovered from panic", "branch", i, "panic", r)
				}
			}()
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
