// Package extract resolves video-host embed URLs into direct stream URLs.
//
// Every supported host is a Host tag with exactly one resolver. A provider is
// resolved by running an ordered strategy list, host-specific first and a
// generic page scan second; the first strategy that yields a source wins.
package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/mo"

	"anime4up/internal/httputil"
	"anime4up/internal/logger"
	"anime4up/internal/media"
)

var (
	// ErrNoMatch reports that the expected markup was absent.
	ErrNoMatch = errors.New("no stream found in page")
	// ErrUnsupported reports a host without a specific resolver.
	ErrUnsupported = errors.New("no host-specific extractor")
)

// Host identifies a video host.
type Host int

const (
	Unknown Host = iota
	Mp4Upload
	Uqload
	Doodstream
	Voe
	Vidmoly
	YourUpload
	Filemoon
	Videa
	VK
	Dailymotion
	Sendvid
	StreamWish
	Megamax
)

// Hosts lists every known host tag, Unknown excluded.
var Hosts = []Host{
	Mp4Upload, Uqload, Doodstream, Voe, Vidmoly, YourUpload, Filemoon,
	Videa, VK, Dailymotion, Sendvid, StreamWish, Megamax,
}

func (h Host) String() string {
	switch h {
	case Mp4Upload:
		return "mp4upload"
	case Uqload:
		return "uqload"
	case Doodstream:
		return "doodstream"
	case Voe:
		return "voe"
	case Vidmoly:
		return "vidmoly"
	case YourUpload:
		return "yourupload"
	case Filemoon:
		return "filemoon"
	case Videa:
		return "videa"
	case VK:
		return "vk"
	case Dailymotion:
		return "dailymotion"
	case Sendvid:
		return "sendvid"
	case StreamWish:
		return "streamwish"
	case Megamax:
		return "megamax"
	default:
		return "unknown"
	}
}

// hostPatterns is checked in order against the lower-cased embed URL.
var hostPatterns = []struct {
	host    Host
	pattern *regexp.Regexp
}{
	{Mp4Upload, regexp.MustCompile(`mp4upload\.`)},
	{Uqload, regexp.MustCompile(`uqload`)},
	{Doodstream, regexp.MustCompile(`dood|d0+d|do0od|ds2play|ds2video|vidply|doply`)},
	{Voe, regexp.MustCompile(`//(?:[\w-]+\.)*voe[\w-]*\.`)},
	{Vidmoly, regexp.MustCompile(`vidmoly`)},
	{YourUpload, regexp.MustCompile(`yourupload`)},
	{Filemoon, regexp.MustCompile(`filemoon|moonplayer`)},
	{Videa, regexp.MustCompile(`videa\.hu`)},
	{VK, regexp.MustCompile(`//(?:[\w-]+\.)*vk(?:video)?\.(?:com|ru)/`)},
	{Dailymotion, regexp.MustCompile(`dailymotion|dai\.ly`)},
	{Sendvid, regexp.MustCompile(`sendvid`)},
	{StreamWish, regexp.MustCompile(`streamwish|wishfast|swish|strwish|embedwish|wishembed`)},
	{Megamax, regexp.MustCompile(`megamax`)},
}

// Classify maps an embed URL to its host tag.
func Classify(embedURL string) Host {
	lower := strings.ToLower(embedURL)
	for _, hp := range hostPatterns {
		if hp.pattern.MatchString(lower) {
			return hp.host
		}
	}
	return Unknown
}

// resolver recovers the sources behind one embed URL.
type resolver func(ctx context.Context, embedURL string) ([]media.Source, error)

// Strategy is one way of resolving an embed URL.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, embedURL, referer string) mo.Result[[]media.Source]
}

// Extractor resolves embed URLs into playable sources.
type Extractor interface {
	Resolve(ctx context.Context, embedURL, referer string) ([]media.Source, error)
}

// Dispatcher routes embed URLs to their host resolver.
type Dispatcher struct {
	client *httputil.Client
}

// New returns the dispatcher as an Extractor.
func New(client *httputil.Client) Extractor {
	return NewDispatcher(client)
}

// NewDispatcher creates a Dispatcher fetching through client.
func NewDispatcher(client *httputil.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// resolverFor returns the host-specific resolver; nil for Unknown.
func (d *Dispatcher) resolverFor(h Host) resolver {
	switch h {
	case Mp4Upload:
		return d.mp4upload
	case Uqload:
		return d.uqload
	case Doodstream:
		return d.doodstream
	case Voe:
		return d.voe
	case Vidmoly:
		return d.vidmoly
	case YourUpload:
		return d.yourupload
	case Filemoon:
		return d.filemoon
	case Videa:
		return d.videa
	case VK:
		return d.vk
	case Dailymotion:
		return d.dailymotion
	case Sendvid:
		return d.sendvid
	case StreamWish:
		return d.streamwish
	case Megamax:
		return d.megamax
	case Unknown:
		return nil
	}
	return nil
}

// Strategies returns the ordered strategy list for a host.
func (d *Dispatcher) Strategies(h Host) []Strategy {
	var out []Strategy
	if r := d.resolverFor(h); r != nil {
		out = append(out, Strategy{
			Name: h.String(),
			Run: func(ctx context.Context, embedURL, _ string) mo.Result[[]media.Source] {
				return mo.TupleToResult(r(ctx, embedURL))
			},
		})
	}
	return append(out, Strategy{
		Name: "generic",
		Run: func(ctx context.Context, embedURL, referer string) mo.Result[[]media.Source] {
			return mo.TupleToResult(d.generic(ctx, embedURL, referer))
		},
	})
}

// Resolve runs the strategies for embedURL and returns the first non-empty
// result. referer is the page the embed link was found on.
func (d *Dispatcher) Resolve(ctx context.Context, embedURL, referer string) ([]media.Source, error) {
	host := Classify(embedURL)
	err := fmt.Errorf("%s: %w", host, ErrUnsupported)

	for _, s := range d.Strategies(host) {
		sources, serr := run(ctx, s, embedURL, referer).Get()
		if serr == nil && len(sources) > 0 {
			logger.Debug("resolved stream", "host", host, "strategy", s.Name, "sources", len(sources))
			return d.fill(sources, embedURL), nil
		}
		if serr == nil {
			serr = ErrNoMatch
		}
		err = fmt.Errorf("%s: %w", s.Name, serr)
		logger.Debug("strategy failed", "host", host, "url", embedURL, "err", err)
	}

	return nil, err
}

// run guards a strategy so a failing recipe can never take the caller down.
func run(ctx context.Context, s Strategy, embedURL, referer string) (res mo.Result[[]media.Source]) {
	defer func() {
		if r := recover(); r != nil {
			res = mo.Err[[]media.Source](fmt.Errorf("%s panicked: %v", s.Name, r))
		}
	}()
	return s.Run(ctx, embedURL, referer)
}

// fill completes missing types and headers.
func (d *Dispatcher) fill(sources []media.Source, embedURL string) []media.Source {
	for i := range sources {
		if sources[i].Type == "" {
			sources[i].Type = media.TypeOf(sources[i].URL)
		}
		if sources[i].Headers == nil {
			sources[i].Headers = d.headers(embedURL)
		}
		if _, ok := sources[i].Headers["User-Agent"]; !ok {
			sources[i].Headers["User-Agent"] = d.client.UserAgent()
		}
	}
	return sources
}
