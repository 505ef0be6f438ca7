package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime4up/api"
	"anime4up/internal/config"
	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

const testBase = "https://ww.anime4up.rest"

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagConfig, flagBase, flagTimeout, flagDebug, flagJSONIndent = "", "", 0, false, false
	})
}

// execute runs the CLI against an in-memory site.
func execute(t *testing.T, pages map[string]string, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)

	fetch := httputil.FetcherFunc(func(ctx context.Context, req *httputil.Request) (*httputil.Response, error) {
		body, ok := pages[req.URL]
		if !ok {
			return nil, errors.New("connection refused")
		}
		return &httputil.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	})

	orig := newAdapter
	newAdapter = func(c *config.Config) *api.Adapter {
		return api.New(api.WithConfig(c), api.WithFetcher(fetch), api.WithDirectFetcher(nil))
	}
	t.Cleanup(func() { newAdapter = orig })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	fixture, err := os.ReadFile("../internal/provider/testdata/search.html")
	require.NoError(t, err)

	out, err := execute(t, map[string]string{
		testBase + "/?search_param=animes&s=one+piece": string(fixture),
	}, "search", "one", "piece")
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"One Piece"`)
	assert.Contains(t, out, testBase+"/anime/one-piece/")
}

func TestSearchCommandIndented(t *testing.T) {
	out, err := execute(t, map[string]string{
		testBase + "/?search_param=animes&s=nothing": "<html><body></body></html>",
	}, "--json-indent", "search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "\"title\": \"No results found\"")
}

func TestDetailsCommandUnreachable(t *testing.T) {
	out, err := execute(t, nil, "details", testBase+"/anime/missing/")
	require.NoError(t, err)
	assert.Contains(t, out, media.DescriptionUnavailable)
}

func TestStreamsCommandUnreachable(t *testing.T) {
	out, err := execute(t, nil, "streams", testBase+"/episode/missing/")
	require.NoError(t, err)
	assert.Equal(t, "{\"streams\":[]}\n", out)
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, map[string]string{testBase + "/": "ok"}, "check", testBase+"/")
	require.NoError(t, err)
	assert.Equal(t, "online\n", out)

	out, err = execute(t, nil, "check", testBase+"/down")
	assert.Error(t, err)
	assert.Contains(t, out, "offline")

	assert.Contains(t, checkCmd.Short, "2xx or 3xx")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "anime4up dev\n", out)
}

func TestApplyFlags(t *testing.T) {
	resetFlags(t)
	flagBase = "https://mirror.example/"
	flagTimeout = 3 * time.Second
	flagDebug = true

	c := config.Default()
	applyFlags(c)
	assert.Equal(t, "https://mirror.example", c.Base)
	assert.Equal(t, 3*time.Second, c.Timeout.Duration)
	assert.True(t, c.Debug)
}

func TestWriteJSON(t *testing.T) {
	resetFlags(t)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, `{"a":[1]}`))
	assert.Equal(t, "{\"a\":[1]}\n", buf.String())

	flagJSONIndent = true
	buf.Reset()
	require.NoError(t, writeJSON(&buf, `{"a":[1]}`))
	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}\n", buf.String())
}

func TestFindEpisode(t *testing.T) {
	episodes := []media.EpisodeRef{
		{Href: "/e1", Number: mo.Some(1)},
		{Href: "/ex", Number: mo.None[int]()},
		{Href: "/e2", Number: mo.Some(2)},
	}

	ep, ok := findEpisode(episodes, 2)
	require.True(t, ok)
	assert.Equal(t, "/e2", ep.Href)

	_, ok = findEpisode(episodes, 0)
	assert.False(t, ok)
	_, ok = findEpisode(episodes, 7)
	assert.False(t, ok)

	r := media.SearchResult{Title: "One Piece"}
	assert.Equal(t, "One Piece E02", episodeTitle(r, episodes[2]))
	assert.Equal(t, "One Piece", episodeTitle(r, episodes[1]))
}
