// Package media defines the shared data model returned by the adapter.
package media

import (
	"strings"

	"github.com/samber/mo"
)

// SearchResult is one hit of a keyword search.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Image string `json:"image"`
	// Error is only set on the error sentinel.
	Error string `json:"error,omitempty"`
}

// Details is the metadata of an anime page. Aliases carries the genre list,
// following the aggregator's field convention.
type Details struct {
	Description string `json:"description"`
	Aliases     string `json:"aliases"`
	Airdate     string `json:"airdate"`
}

// Details placeholders, in the site's language.
const (
	NoDescription          = "لا يوجد وصف متاح."
	DescriptionUnavailable = "تعذر تحميل الوصف."
	Unclassified           = "غير مصنف"
	airdatePrefix          = "سنة العرض: "
	unknownYear            = "غير معروف"
	unknownYearFailure     = "غير معروفة"
)

// DefaultDetails is the record a page without metadata yields.
func DefaultDetails() Details {
	return Details{Description: NoDescription, Aliases: Unclassified, Airdate: Airdate("")}
}

// UnavailableDetails is the record returned when the page could not be read.
func UnavailableDetails() Details {
	return Details{Description: DescriptionUnavailable, Aliases: Unclassified, Airdate: airdatePrefix + unknownYearFailure}
}

// Airdate formats a release year; an empty year reads as unknown.
func Airdate(year string) string {
	if year == "" {
		year = unknownYear
	}
	return airdatePrefix + year
}

// EpisodeRef points at one episode page.
type EpisodeRef struct {
	Href   string         `json:"href"`
	Number mo.Option[int] `json:"number"`
	Title  string         `json:"title,omitempty"`
	Image  string         `json:"image,omitempty"`
}

// SingleEpisode is the one-entry list used for movies and unreadable pages.
func SingleEpisode(pageURL string) []EpisodeRef {
	return []EpisodeRef{{Href: pageURL, Number: mo.Some(1)}}
}

// Provider is one embed link harvested from an episode page.
type Provider struct {
	URL   string
	Title string
}

// StreamType tells a player how to open a stream.
type StreamType string

const (
	MP4 StreamType = "mp4"
	HLS StreamType = "hls"
)

// TypeOf guesses the stream type from a URL.
func TypeOf(u string) StreamType {
	lower := strings.ToLower(u)
	switch {
	case strings.Contains(lower, ".m3u8"):
		return HLS
	case strings.Contains(lower, ".mp4"):
		return MP4
	default:
		return ""
	}
}

// Source is one rendition recovered by a host extractor.
type Source struct {
	Quality string
	URL     string
	Type    StreamType
	Headers map[string]string
}

// Stream is one playable entry of an episode. Headers must be replayed by the
// player when requesting StreamURL.
type Stream struct {
	Title     string            `json:"title"`
	StreamURL string            `json:"streamUrl"`
	Headers   map[string]string `json:"headers"`
	Type      StreamType        `json:"type,omitempty"`
}
