// Package api exposes the Anime4Up adapter as JSON-string entry points.
//
// Every function returns a JSON document and never fails: errors and panics
// below this package are turned into the documented sentinel values here,
// exactly once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"anime4up/internal/config"
	"anime4up/internal/extract"
	"anime4up/internal/httputil"
	"anime4up/internal/logger"
	"anime4up/internal/media"
	"anime4up/internal/provider"
)

// Adapter answers the four adapter calls for one site configuration.
type Adapter struct {
	client *httputil.Client
	site   provider.Provider
}

type settings struct {
	client    []httputil.ClientOption
	provider  provider.Options
	extractor extract.Extractor
}

// Option customizes an Adapter.
type Option func(*settings)

// WithFetcher injects the host environment's fetch function. The built-in
// transport stays as the fallback.
func WithFetcher(f httputil.Fetcher) Option {
	return func(s *settings) { s.client = append(s.client, httputil.WithTransport(f)) }
}

// WithDirectFetcher replaces the fallback transport; nil disables it.
func WithDirectFetcher(f httputil.Fetcher) Option {
	return func(s *settings) { s.client = append(s.client, httputil.WithDirect(f)) }
}

// WithTimeout bounds every HTTP call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.client = append(s.client, httputil.WithTimeout(d)) }
}

// WithUserAgent sets the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.client = append(s.client, httputil.WithUserAgent(ua)) }
}

// WithExtractor replaces the stream extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(s *settings) { s.extractor = e }
}

// WithProviderOptions replaces the site adapter options.
func WithProviderOptions(o provider.Options) Option {
	return func(s *settings) { s.provider = o }
}

// WithConfig applies a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.client = append(s.client,
			httputil.WithTimeout(cfg.Timeout.Duration),
			httputil.WithUserAgent(cfg.UserAgent),
		)
		s.provider = provider.Options{
			Base:           cfg.Base,
			Rules:          provider.DefaultRules,
			Blocklist:      cfg.Blocklist,
			Resolve:        provider.Policy(strings.ToLower(cfg.Resolve)),
			MaxConcurrency: cfg.MaxConcurrency,
			Pagination:     provider.Policy(strings.ToLower(cfg.Pagination)),
			BatchSize:      cfg.BatchSize,
			BatchDelay:     cfg.BatchDelay.Duration,
			EmbedFallback:  cfg.EmbedFallback,
		}
	}
}

// New creates an Adapter.
func New(opts ...Option) *Adapter {
	s := settings{provider: provider.DefaultOptions()}
	for _, opt := range opts {
		opt(&s)
	}
	client := httputil.NewClient(s.client...)
	return &Adapter{
		client: client,
		site:   provider.NewAnime4Up(client, s.extractor, s.provider),
	}
}

// Client returns the HTTP client shared by every call.
func (a *Adapter) Client() *httputil.Client {
	return a.client
}

// Provider returns the typed site adapter.
func (a *Adapter) Provider() provider.Provider {
	return a.site
}

// SearchResults returns a JSON array of {title, href, image}. No hits yield
// a single "No results found" entry; a failure yields an "Error" entry
// carrying the message.
func (a *Adapter) SearchResults(ctx context.Context, keyword string) (out string) {
	defer guard("search", &out, func(msg string) string { return encode(searchError(msg)) })

	results, err := a.site.Search(ctx, keyword)
	if err != nil {
		logger.Debug("search failed", "keyword", keyword, "err", err)
		return encode(searchError(err.Error()))
	}
	if len(results) == 0 {
		return encode([]media.SearchResult{{Title: "No results found"}})
	}
	return encode(results)
}

// ExtractDetails returns a one-element JSON array of {description, aliases,
// airdate}. A failure yields the unavailable placeholder record.
func (a *Adapter) ExtractDetails(ctx context.Context, pageURL string) (out string) {
	unavailable := func(string) string { return encode([]media.Details{media.UnavailableDetails()}) }
	defer guard("details", &out, unavailable)

	details, err := a.site.Details(ctx, pageURL)
	if err != nil {
		logger.Debug("details failed", "url", pageURL, "err", err)
		return unavailable("")
	}
	return encode([]media.Details{*details})
}

// ExtractEpisodes returns a JSON array of {href, number}. A failure yields a
// single episode pointing at pageURL.
func (a *Adapter) ExtractEpisodes(ctx context.Context, pageURL string) (out string) {
	single := func(string) string { return encode(media.SingleEpisode(pageURL)) }
	defer guard("episodes", &out, single)

	episodes, err := a.site.Episodes(ctx, pageURL)
	if err != nil || len(episodes) == 0 {
		logger.Debug("episodes failed", "url", pageURL, "err", err)
		return single("")
	}
	return encode(episodes)
}

// streamList is the document returned by ExtractStreamURL.
type streamList struct {
	Streams []media.Stream `json:"streams"`
}

// ExtractStreamURL returns {"streams": [...]} for an episode page. A failure
// yields an empty list.
func (a *Adapter) ExtractStreamURL(ctx context.Context, episodeURL string) (out string) {
	empty := func(string) string { return encode(streamList{Streams: []media.Stream{}}) }
	defer guard("streams", &out, empty)

	streams, err := a.site.Streams(ctx, episodeURL)
	if err != nil || len(streams) == 0 {
		logger.Debug("stream extraction failed", "url", episodeURL, "err", err)
		return empty("")
	}
	return encode(streamList{Streams: streams})
}

func searchError(msg string) []media.SearchResult {
	return []media.SearchResult{{Title: "Error", Error: msg}}
}

// guard replaces out with fallback when the call panicked.
func guard(op string, out *string, fallback func(msg string) string) {
	if r := recover(); r != nil {
		logger.Error("recovered from panic", "op", op, "panic", r)
		*out = fallback("internal error")
	}
}

// encode marshals v without HTML escaping so URLs keep their '&'.
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("encoding result", "err", err)
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

var defaultAdapter = sync.OnceValue(func() *Adapter { return New() })

// SearchResults searches with the default adapter.
func SearchResults(keyword string) string {
	return defaultAdapter().SearchResults(context.Background(), keyword)
}

// ExtractDetails reads an anime page with the default adapter.
func ExtractDetails(pageURL string) string {
	return defaultAdapter().ExtractDetails(context.Background(), pageURL)
}

// ExtractEpisodes lists episodes with the default adapter.
func ExtractEpisodes(pageURL string) string {
	return defaultAdapter().ExtractEpisodes(context.Background(), pageURL)
}

// ExtractStreamURL resolves an episode page with the default adapter.
func ExtractStreamURL(episodeURL string) string {
	return defaultAdapter().ExtractStreamURL(context.Background(), episodeURL)
}
