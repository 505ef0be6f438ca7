package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"anime4up/internal/httputil"
	"anime4up/internal/media"
)

var (
	voeRedirect   = regexp.MustCompile(`window\.location\.href\s*=\s*['"]([^'"]+)['"]`)
	voeJSONScript = regexp.MustCompile(`(?is)<script[^>]+type\s*=\s*["']application/json["'][^>]*>\s*(.+?)\s*</script>`)
	voeHLS        = regexp.MustCompile(`['"]hls['"]\s*:\s*['"]([^'"]+)['"]`)
	voeID         = regexp.MustCompile(`/e/([A-Za-z0-9]+)`)
)

// voeNoise are the 2-character tokens the host sprinkles into the payload.
var voeNoise = []string{"@$", "^^", "~@", "%?", "*~", "!!", "#&"}

type voePayload struct {
	DirectAccessURL string `json:"direct_access_url"`
	Source          []struct {
		DirectAccessURL string `json:"direct_access_url"`
		Label           string `json:"label"`
	} `json:"source"`
}

func (p voePayload) url() string {
	if strings.HasPrefix(p.DirectAccessURL, "http") {
		return p.DirectAccessURL
	}
	for _, s := range p.Source {
		if strings.HasPrefix(s.DirectAccessURL, "http") {
			return s.DirectAccessURL
		}
	}
	return ""
}

func (d *Dispatcher) voe(ctx context.Context, embedURL string) ([]media.Source, error) {
	html, err := d.page(ctx, embedURL, embedURL)
	if err != nil {
		return nil, err
	}

	if !voeJSONScript.MatchString(html) {
		if m := voeRedirect.FindStringSubmatch(html); m != nil {
			target := httputil.NormalizeURL(m[1], embedURL)
			if html, err = d.page(ctx, target, embedURL); err != nil {
				return nil, err
			}
			embedURL = target
		}
	}

	headers := d.headers(embedURL)

	if m := voeJSONScript.FindStringSubmatch(html); m != nil {
		if payload, err := decodeVoePayload(m[1]); err == nil {
			if u := payload.url(); u != "" {
				return single(u, headers), nil
			}
		}
	}

	if m := voeHLS.FindStringSubmatch(html); m != nil {
		u := m[1]
		if !strings.HasPrefix(u, "http") {
			if b, err := atob(u); err == nil {
				u = string(b)
			}
		}
		if strings.HasPrefix(u, "http") {
			return []media.Source{{URL: u, Type: media.HLS, Headers: headers}}, nil
		}
	}

	return d.voeAPI(ctx, embedURL)
}

// voeAPI asks the JSON source endpoint, preferring an HLS entry.
func (d *Dispatcher) voeAPI(ctx context.Context, embedURL string) ([]media.Source, error) {
	m := voeID.FindStringSubmatch(embedURL)
	if m == nil {
		return nil, ErrNoMatch
	}
	origin := httputil.Origin(embedURL)

	headers := d.headers(embedURL)
	headers["Content-Type"] = "application/x-www-form-urlencoded"
	headers["X-Requested-With"] = "XMLHttpRequest"
	resp := d.client.Do(ctx, origin+"/api/source/"+m[1], httputil.Options{
		Method:  "POST",
		Headers: headers,
		Body:    []byte("r=&d=" + httputil.Host(embedURL)),
	})
	if resp == nil {
		return nil, httputil.ErrNoResponse
	}

	var api struct {
		Data []struct {
			File  string `json:"file"`
			Label string `json:"label"`
			Type  string `json:"type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &api); err != nil {
		return nil, fmt.Errorf("parsing voe api response: %w", err)
	}
	if len(api.Data) == 0 {
		return nil, ErrNoMatch
	}

	pick := api.Data[0]
	for _, e := range api.Data {
		if strings.Contains(e.File, ".m3u8") {
			pick = e
			break
		}
	}
	if pick.File == "" {
		return nil, ErrNoMatch
	}

	return []media.Source{{
		Quality: pick.Label,
		URL:     httputil.NormalizeURL(pick.File, embedURL),
		Headers: d.headers(embedURL),
	}}, nil
}

// decodeVoePayload undoes the host's obfuscation in order: ROT13, noise
// removal, base64, character shift by -3, reversal, base64, JSON.
func decodeVoePayload(raw string) (voePayload, error) {
	var p voePayload

	encoded := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(encoded, "["):
		var arr []string
		if err := json.Unmarshal([]byte(encoded), &arr); err != nil || len(arr) == 0 {
			return p, fmt.Errorf("voe payload array: %w", ErrNoMatch)
		}
		encoded = arr[0]
	case strings.HasPrefix(encoded, `"`):
		if err := json.Unmarshal([]byte(encoded), &encoded); err != nil {
			return p, fmt.Errorf("voe payload string: %w", err)
		}
	}

	s := rot13(encoded)
	for _, n := range voeNoise {
		s = strings.ReplaceAll(s, n, "_")
	}
	s = strings.ReplaceAll(s, "_", "")

	b, err := atob(s)
	if err != nil {
		return p, fmt.Errorf("voe first base64 layer: %w", err)
	}
	for i := range b {
		b[i] -= 3
	}
	reverseBytes(b)

	plain, err := atob(string(b))
	if err != nil {
		return p, fmt.Errorf("voe second base64 layer: %w", err)
	}
	if err := json.Unmarshal(plain, &p); err != nil {
		return p, fmt.Errorf("voe payload json: %w", err)
	}
	return p, nil
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
