package player

import (
	"context"

	"anime4up/internal/media"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return available("vlc") }

// Play launches VLC. VLC only forwards Referer and User-Agent; other
// headers are dropped.
func (v *VLC) Play(ctx context.Context, stream media.Stream, title string) error {
	return run(ctx, "vlc", vlcArgs(stream, title))
}

func vlcArgs(stream media.Stream, title string) []string {
	args := []string{
		stream.StreamURL,
		"--meta-title", title,
		"--play-and-exit",
	}
	if ref := header(stream.Headers, "Referer"); ref != "" {
		args = append(args, "--http-referrer="+ref)
	}
	if ua := header(stream.Headers, "User-Agent"); ua != "" {
		args = append(args, "--http-user-agent="+ua)
	}
	return args
}
