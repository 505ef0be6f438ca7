// Package ui wraps fzf for interactive selection. Items are piped to fzf as
// plain text; no preview commands are built from remote data.
package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCancelled reports that the user left fzf without choosing.
var ErrCancelled = errors.New("selection cancelled")

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Select presents items via fzf and returns the chosen index.
func Select(ctx context.Context, prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	fzfPath, err := lookPath("fzf")
	if err != nil {
		return -1, fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, fzfPath, selectArgs(prompt)...)
	cmd.Stdin = strings.NewReader(numbered(items))
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 130 || exitErr.ExitCode() == 1) {
			return -1, ErrCancelled
		}
		return -1, fmt.Errorf("fzf failed: %w", err)
	}

	return parseSelection(stdout.String(), len(items))
}

// Input prompts for free text via fzf's --print-query.
func Input(ctx context.Context, prompt string) (string, error) {
	fzfPath, err := lookPath("fzf")
	if err != nil {
		return "", fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, fzfPath,
		"--prompt", prompt+" > ",
		"--height", "10%",
		"--reverse",
		"--print-query",
		"--no-info",
	)
	cmd.Stdin = strings.NewReader("")
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// fzf exits 1 with --print-query and no match
	_ = cmd.Run()

	query := strings.TrimSpace(strings.SplitN(stdout.String(), "\n", 2)[0])
	if query == "" {
		return "", fmt.Errorf("no input provided")
	}
	return query, nil
}

func selectArgs(prompt string) []string {
	return []string{
		"--prompt", prompt + " > ",
		"--height", "40%",
		"--reverse",
		"--with-nth", "2..",
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	}
}

// numbered prefixes every item with its index so the choice survives
// duplicate labels. Tabs and newlines inside labels are flattened.
func numbered(items []string) string {
	flatten := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d\t%s\n", i, flatten.Replace(item))
	}
	return b.String()
}

func parseSelection(out string, n int) (int, error) {
	selected := strings.TrimSpace(out)
	if selected == "" {
		return -1, ErrCancelled
	}

	field, _, _ := strings.Cut(selected, "\t")
	idx, err := strconv.Atoi(field)
	if err != nil {
		return -1, fmt.Errorf("parsing selection index: %w", err)
	}
	if idx < 0 || idx >= n {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}
	return idx, nil
}
