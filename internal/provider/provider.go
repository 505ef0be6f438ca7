// Package provider implements the Anime4Up site adapter: search, details,
// episode listing and stream resolution of episode pages.
package provider

import (
	"context"
	"errors"

	"anime4up/internal/media"
)

// ErrNoProviders reports an episode page without any usable embed link.
var ErrNoProviders = errors.New("no providers found")

// Provider is the interface a source site adapter implements.
type Provider interface {
	// Search returns the anime cards matching keyword.
	Search(ctx context.Context, keyword string) ([]media.SearchResult, error)

	// Details returns the metadata of an anime page.
	Details(ctx context.Context, pageURL string) (*media.Details, error)

	// Episodes lists the episodes of an anime page, sorted by number.
	Episodes(ctx context.Context, pageURL string) ([]media.EpisodeRef, error)

	// Streams resolves an episode page into playable streams.
	Streams(ctx context.Context, episodeURL string) ([]media.Stream, error)
}
