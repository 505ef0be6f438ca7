package player

import (
	"context"

	"anime4up/internal/media"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool { return available(g.name) }

// Play launches the player with mpv-style flags.
func (g *Generic) Play(ctx context.Context, stream media.Stream, title string) error {
	args := mpvArgs(stream, title)
	if g.name == "iina" {
		args = iinaArgs(args)
	}
	return run(ctx, g.name, args)
}

// iinaArgs rewrites mpv flags into iina's --mpv- namespace.
func iinaArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if len(a) > 2 && a[:2] == "--" {
			a = "--mpv-" + a[2:]
		}
		out[i] = a
	}
	return out
}
