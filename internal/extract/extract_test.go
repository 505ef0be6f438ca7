package extract

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

// fakeWeb serves canned pages keyed by URL and records every request.
type fakeWeb struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []*httputil.Request
}

func (f *fakeWeb) Fetch(ctx context.Context, req *httputil.Request) (*httputil.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	body, ok := f.pages[req.URL]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &httputil.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeWeb) request(url string) *httputil.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.URL == url {
			return r
		}
	}
	return nil
}

func newTestDispatcher(pages map[string]string) (*Dispatcher, *fakeWeb) {
	web := &fakeWeb{pages: pages}
	client := httputil.NewClient(httputil.WithTransport(web), httputil.WithDirect(nil))
	return NewDispatcher(client), web
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Host
	}{
		{"https://www.mp4upload.com/embed-abc.html", Mp4Upload},
		{"https://uqload.io/embed-abc.html", Uqload},
		{"https://dood.la/e/abc", Doodstream},
		{"https://d0000d.com/e/abc", Doodstream},
		{"https://ds2play.com/e/abc", Doodstream},
		{"https://voe.sx/e/abc", Voe},
		{"https://vidmoly.to/embed-abc.html", Vidmoly},
		{"https://www.yourupload.com/embed/abc", YourUpload},
		{"https://filemoon.sx/e/abc", Filemoon},
		{"https://videa.hu/player?v=abc", Videa},
		{"https://vk.com/video_ext.php?oid=1&id=2", VK},
		{"https://vkvideo.ru/video_ext.php?oid=1", VK},
		{"https://www.dailymotion.com/embed/video/x8abc", Dailymotion},
		{"https://sendvid.com/embed/abc", Sendvid},
		{"https://streamwish.to/e/abc", StreamWish},
		{"https://megamax.me/iframe/abc", Megamax},
		{"https://example.com/embed/1", Unknown},
		{"https://invoice.example/embed", Unknown},
		{"HTTPS://VOE.SX/E/ABC", Voe},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url))
		})
	}
}

func TestEveryHostHasResolver(t *testing.T) {
	d, _ := newTestDispatcher(nil)
	for _, h := range Hosts {
		assert.NotNil(t, d.resolverFor(h), h.String())
		assert.NotEqual(t, "unknown", h.String())

		strategies := d.Strategies(h)
		require.Len(t, strategies, 2, h.String())
		assert.Equal(t, h.String(), strategies[0].Name)
		assert.Equal(t, "generic", strategies[1].Name)
	}
	assert.Nil(t, d.resolverFor(Unknown))
	assert.Len(t, d.Strategies(Unknown), 1)
}

func TestResolveGenericForUnknownHost(t *testing.T) {
	d, web := newTestDispatcher(map[string]string{
		"https://player.example/embed/1": `<script>var player = {file: "https:\/\/cdn.example\/v\/index.m3u8"};</script>`,
	})

	sources, err := d.Resolve(context.Background(), "https://player.example/embed/1", "https://anime.example/episode/1/")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://cdn.example/v/index.m3u8", sources[0].URL)
	assert.Equal(t, media.HLS, sources[0].Type)
	assert.Equal(t, "https://player.example/embed/1", sources[0].Headers["Referer"])
	assert.Equal(t, httputil.DefaultUserAgent, sources[0].Headers["User-Agent"])

	req := web.request("https://player.example/embed/1")
	require.NotNil(t, req)
	assert.Equal(t, "https://anime.example/episode/1/", req.Headers["Referer"])
}

func TestResolveFallsBackToGeneric(t *testing.T) {
	d, _ := newTestDispatcher(map[string]string{
		"https://uqload.io/embed-abc.html": `<video><source src="https://m180.uqload.example/hls/master.m3u8"></video>`,
	})

	sources, err := d.Resolve(context.Background(), "https://uqload.io/embed-abc.html", "")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://m180.uqload.example/hls/master.m3u8", sources[0].URL)
	assert.Equal(t, media.HLS, sources[0].Type)
}

func TestResolveFailures(t *testing.T) {
	d, _ := newTestDispatcher(map[string]string{
		"https://dood.la/e/empty": "<html>nothing to see</html>",
	})

	tests := []struct {
		name string
		url  string
	}{
		{"malformed url", "not a url"},
		{"unsupported scheme", "ftp://dood.la/e/abc"},
		{"unreachable host", "https://voe.sx/e/gone"},
		{"page without media", "https://dood.la/e/empty"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				sources, err := d.Resolve(context.Background(), tt.url, "")
				assert.Error(t, err)
				assert.Empty(t, sources)
			})
		})
	}
}

func TestRunRecoversPanics(t *testing.T) {
	s := Strategy{
		Name: "broken",
		Run: func(ctx context.Context, embedURL, referer string) mo.Result[[]media.Source] {
			panic("index out of range")
		},
	}

	res := run(context.Background(), s, "https://example.com", "")
	assert.True(t, res.IsError())
	assert.Contains(t, res.Error().Error(), "broken panicked")
}

func TestFillCompletesSources(t *testing.T) {
	d, _ := newTestDispatcher(nil)
	sources := d.fill([]media.Source{
		{URL: "https://cdn.example/a.mp4"},
		{URL: "https://cdn.example/b.m3u8", Headers: map[string]string{"Referer": "https://host.example/"}},
	}, "https://host.example/e/1")

	assert.Equal(t, media.MP4, sources[0].Type)
	assert.Equal(t, "https://host.example/e/1", sources[0].Headers["Referer"])
	assert.Equal(t, media.HLS, sources[1].Type)
	assert.Equal(t, "https://host.example/", sources[1].Headers["Referer"])
	assert.Equal(t, httputil.DefaultUserAgent, sources[1].Headers["User-Agent"])
}
