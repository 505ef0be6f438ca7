package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"anime4up/internal/download"
	"anime4up/internal/logger"
	"anime4up/internal/media"
	"anime4up/internal/player"
	"anime4up/internal/provider"
	"anime4up/internal/ui"
)

var (
	flagDownload bool
	flagOutput   string
	flagPlayer   string
	flagEpisode  int
)

var watchCmd = &cobra.Command{
	Use:   "watch [keyword]",
	Short: "Pick an anime, an episode and a stream, then play or download it",
	Args:  cobra.ArbitraryArgs,
	RunE:  watchRun,
}

func init() {
	watchCmd.Flags().BoolVarP(&flagDownload, "download", "d", false, "Download with ffmpeg instead of playing")
	watchCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Download directory (default: download_dir)")
	watchCmd.Flags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	watchCmd.Flags().IntVarP(&flagEpisode, "episode", "e", 0, "Episode number to skip selection")
}

func watchRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	if query == "" {
		// Prompt for query via fzf
		var err error
		query, err = ui.Input(ctx, "Search")
		if err != nil {
			return fmt.Errorf("no search query provided")
		}
	}

	logger.Debug("searching", "query", query)
	p := newAdapter(cfg).Provider()

	results, err := p.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no results for %q", query)
	}

	idx, err := ui.Select(ctx, "Anime", lo.Map(results, func(r media.SearchResult, _ int) string {
		return provider.FormatDisplayTitle(r)
	}))
	if err != nil {
		return err
	}
	selected := results[idx]
	logger.Debug("selected", "title", selected.Title, "href", selected.Href)

	episode, err := pickEpisode(ctx, p, selected)
	if err != nil {
		return err
	}
	title := episodeTitle(selected, episode)

	streams, err := p.Streams(ctx, episode.Href)
	if err != nil {
		return fmt.Errorf("resolving streams: %w", err)
	}
	if len(streams) == 0 {
		return fmt.Errorf("no streams found for %s", title)
	}

	stream := streams[0]
	if len(streams) > 1 {
		idx, err := ui.Select(ctx, "Stream", lo.Map(streams, func(s media.Stream, _ int) string {
			return provider.FormatStreamTitle(s)
		}))
		if err != nil {
			return err
		}
		stream = streams[idx]
	}
	logger.Debug("stream", "title", stream.Title, "url", stream.StreamURL)

	if flagDownload {
		dir := flagOutput
		if dir == "" {
			dir, err = cfg.ExpandDownloadDir()
			if err != nil {
				return fmt.Errorf("resolving download dir: %w", err)
			}
		}
		outputPath, err := download.Download(ctx, stream, title, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Downloaded: %s\n", outputPath)
		return nil
	}

	name := lo.CoalesceOrEmpty(flagPlayer, cfg.Player)
	pl := player.New(name)
	if !pl.Available() {
		return fmt.Errorf("player %q not found in PATH", name)
	}
	if err := pl.Play(ctx, stream, title); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// pickEpisode uses --episode when it matches, a lone episode as is, and fzf
// otherwise.
func pickEpisode(ctx context.Context, p provider.Provider, selected media.SearchResult) (media.EpisodeRef, error) {
	episodes, err := p.Episodes(ctx, selected.Href)
	if err != nil {
		return media.EpisodeRef{}, fmt.Errorf("getting episodes: %w", err)
	}
	if len(episodes) == 0 {
		return media.EpisodeRef{}, fmt.Errorf("no episodes found")
	}

	if ep, ok := findEpisode(episodes, flagEpisode); ok {
		return ep, nil
	}
	if len(episodes) == 1 {
		return episodes[0], nil
	}

	idx, err := ui.Select(ctx, "Episode", lo.Map(episodes, func(e media.EpisodeRef, _ int) string {
		return provider.FormatEpisodeTitle(e)
	}))
	if err != nil {
		return media.EpisodeRef{}, err
	}
	return episodes[idx], nil
}

func findEpisode(episodes []media.EpisodeRef, number int) (media.EpisodeRef, bool) {
	if number <= 0 {
		return media.EpisodeRef{}, false
	}
	return lo.Find(episodes, func(e media.EpisodeRef) bool {
		n, ok := e.Number.Get()
		return ok && n == number
	})
}

func episodeTitle(r media.SearchResult, e media.EpisodeRef) string {
	if n, ok := e.Number.Get(); ok {
		return fmt.Sprintf("%s E%02d", r.Title, n)
	}
	return r.Title
}
