// Package download saves resolved streams with ffmpeg. ffmpeg is run with an
// explicit argument slice and output paths are checked against directory
// traversal.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"anime4up/internal/httputil"
	"anime4up/internal/logger"
	"anime4up/internal/media"
)

// lookPath is replaced in tests.
var lookPath = execLookPath

var execLookPath = exec.LookPath

// Download fetches a stream into outputDir using ffmpeg and returns the
// written file.
func Download(ctx context.Context, stream media.Stream, title, outputDir string) (string, error) {
	ffmpegPath, err := lookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	outputPath, err := OutputPath(outputDir, title)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, Args(stream, title, outputPath)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Info("downloading", "title", title, "to", outputPath)

	if err := cmd.Run(); err != nil {
		// Clean up partial download on failure
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg download failed: %w", err)
	}

	return outputPath, nil
}

// OutputPath creates outputDir and returns the sanitized file path for title.
// HLS streams are remuxed into mp4 like direct files.
func OutputPath(outputDir, title string) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	outputPath, err := httputil.SafeDownloadPath(absDir, httputil.SanitizeFilename(title)+".mp4")
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	return outputPath, nil
}

// Args builds the ffmpeg command line. The stream's headers are replayed on
// every request ffmpeg makes, segments included.
func Args(stream media.Stream, title, outputPath string) []string {
	args := []string{"-y", "-loglevel", "error", "-stats"}

	var ua string
	var lines []string
	for k, v := range stream.Headers {
		if strings.EqualFold(k, "User-Agent") {
			ua = v
			continue
		}
		lines = append(lines, k+": "+v)
	}
	sort.Strings(lines)

	if ua != "" {
		args = append(args, "-user_agent", ua)
	}
	if len(lines) > 0 {
		args = append(args, "-headers", strings.Join(lines, "\r\n")+"\r\n")
	}

	args = append(args,
		"-i", stream.StreamURL,
		"-c", "copy",
	)
	if stream.Type == media.HLS {
		args = append(args, "-bsf:a", "aac_adtstoasc")
	}

	return append(args,
		"-metadata", "title="+title,
		outputPath,
	)
}
