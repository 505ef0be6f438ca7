package player

import (
	"context"

	"anime4up/internal/media"
)

// MPV implements the Player interface for mpv.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return available("mpv") }

// Play launches mpv with the stream's headers.
func (m *MPV) Play(ctx context.Context, stream media.Stream, title string) error {
	return run(ctx, "mpv", mpvArgs(stream, title))
}

// mpvArgs builds the mpv-style command line shared with iina and celluloid.
func mpvArgs(stream media.Stream, title string) []string {
	args := []string{
		stream.StreamURL,
		"--force-media-title=" + title,
		"--really-quiet",
	}
	if ref := header(stream.Headers, "Referer"); ref != "" {
		args = append(args, "--referrer="+ref)
	}
	if ua := header(stream.Headers, "User-Agent"); ua != "" {
		args = append(args, "--user-agent="+ua)
	}
	for _, h := range extraHeaders(stream.Headers) {
		args = append(args, "--http-header-fields-append="+h)
	}
	return args
}
