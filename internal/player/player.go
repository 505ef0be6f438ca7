// Package player launches media players on resolved streams. Players are
// started with explicit argument slices and receive the stream's request
// headers, since most hosts refuse requests without the right Referer.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"anime4up/internal/media"
)

// Player is the interface for media player implementations.
type Player interface {
	// Play starts playback of a stream and blocks until the player exits.
	Play(ctx context.Context, stream media.Stream, title string) error

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch strings.ToLower(name) {
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: strings.ToLower(name)}
	default:
		return &MPV{}
	}
}

// lookPath is replaced in tests.
var lookPath = defaultLookPath

var defaultLookPath = exec.LookPath

func available(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// extraHeaders returns the headers other than Referer and User-Agent as
// sorted "Key: value" lines.
func extraHeaders(headers map[string]string) []string {
	var out []string
	for k, v := range headers {
		if strings.EqualFold(k, "Referer") || strings.EqualFold(k, "User-Agent") {
			continue
		}
		out = append(out, k+": "+v)
	}
	sort.Strings(out)
	return out
}

func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// run starts name with args attached to the terminal. A non-zero exit is
// how players report a user quit and is not an error.
func run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}
