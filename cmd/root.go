// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"anime4up/api"
	"anime4up/internal/config"
	"anime4up/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig     string
	flagBase       string
	flagTimeout    time.Duration
	flagDebug      bool
	flagJSONIndent bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// newAdapter builds the adapter every command talks to. Tests swap it.
var newAdapter = func(c *config.Config) *api.Adapter {
	return api.New(api.WithConfig(c))
}

var rootCmd = &cobra.Command{
	Use:   "anime4up",
	Short: "Search and stream anime from Anime4Up",
	Long: `anime4up scrapes the Anime4Up catalogue: search titles, read details,
list episodes and resolve the video hosts behind an episode into playable
streams. Output is JSON; watch plays a stream with mpv/vlc or downloads it.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "anime4up %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagBase, "base", "", "Site base URL")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-request timeout (e.g. 10s)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagJSONIndent, "json-indent", false, "Always pretty-print JSON output")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyFlags(cfg)

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Options{Debug: cfg.Debug, File: cfg.LogFile}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	if flagConfig != "" {
		if _, err := os.Stat(flagConfig); err != nil {
			logger.Warn("config file not readable, using defaults", "path", flagConfig)
		}
	}
	logger.Debug("config loaded", "base", cfg.Base, "resolve", cfg.Resolve, "pagination", cfg.Pagination)
	return nil
}

func applyFlags(c *config.Config) {
	if flagBase != "" {
		c.Base = strings.TrimRight(flagBase, "/")
	}
	if flagTimeout > 0 {
		c.Timeout = config.Duration{Duration: flagTimeout}
	}
	if flagDebug {
		c.Debug = true
	}
}

// writeJSON prints an adapter document, indented when asked to or when w is
// a terminal.
func writeJSON(w io.Writer, doc string) error {
	if flagJSONIndent || isTerminal(w) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(doc), "", "  "); err == nil {
			doc = buf.String()
		}
	}
	_, err := fmt.Fprintln(w, doc)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
