package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"empty passes through", "", "https://a.com", ""},
		{"protocol relative", "//a.com/v", "", "https://a.com/v"},
		{"root relative against base", "/v", "https://a.com", "https://a.com/v"},
		{"absolute http unchanged", "http://a.com/v", "", "http://a.com/v"},
		{"absolute https unchanged", "https://a.com/v?x=1", "https://b.com", "https://a.com/v?x=1"},
		{"relative path joins", "episode/2", "https://a.com/anime/x/", "https://a.com/anime/x/episode/2"},
		{"bare host without base", "a.com/v", "", "https://a.com/v"},
		{"bare double slash", "//", "", "https://"},
		{"root relative with broken base", "/v/x", "::bad", "https://v/x"},
		{"whitespace trimmed", "  //a.com/v  ", "", "https://a.com/v"},
		{"uppercase scheme kept", "HTTPS://A.com/v", "", "HTTPS://A.com/v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.raw, tt.base))
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	bases := []string{"", "https://a.com", "https://a.com/anime/x/", "::bad"}
	inputs := []string{
		"", "//a.com/v", "/v", "v", "http://a.com/v", "a.com/v",
		"?page=2", "#top", "../up", "javascript:void(0)", "/www.x.com/y",
	}

	for _, base := range bases {
		for _, raw := range inputs {
			once := NormalizeURL(raw, base)
			assert.Equal(t, once, NormalizeURL(once, base), "raw=%q base=%q", raw, base)
		}
	}
}

func TestOriginAndHost(t *testing.T) {
	assert.Equal(t, "https://dood.la", Origin("https://dood.la/e/abc?x=1"))
	assert.Equal(t, "", Origin("not a url"))
	assert.Equal(t, "uqload.net", Host("https://www.UQLOAD.net/embed-x.html"))
}
