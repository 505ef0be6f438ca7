package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search the catalogue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := newAdapter(cfg).SearchResults(cmd.Context(), strings.Join(args, " "))
		return writeJSON(cmd.OutOrStdout(), doc)
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <url>",
	Short: "Show description, genres and air year of an anime page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := newAdapter(cfg).ExtractDetails(cmd.Context(), args[0])
		return writeJSON(cmd.OutOrStdout(), doc)
	},
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <url>",
	Short: "List the episodes of an anime page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := newAdapter(cfg).ExtractEpisodes(cmd.Context(), args[0])
		return writeJSON(cmd.OutOrStdout(), doc)
	},
}

var streamsCmd = &cobra.Command{
	Use:   "streams <url>",
	Short: "Resolve the playable streams of an episode page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := newAdapter(cfg).ExtractStreamURL(cmd.Context(), args[0])
		return writeJSON(cmd.OutOrStdout(), doc)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Report whether a URL answers with a 2xx or 3xx status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !newAdapter(cfg).Client().CheckServer(cmd.Context(), args[0]) {
			fmt.Fprintln(cmd.OutOrStdout(), "offline")
			return fmt.Errorf("%s is not reachable", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), "online")
		return nil
	},
}
