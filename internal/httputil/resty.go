package httputil

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// restyFetcher is the direct transport used when no fetcher is injected.
type restyFetcher struct {
	client *resty.Client
}

// NewRestyFetcher wraps hc in a resty client.
func NewRestyFetcher(hc *http.Client) Fetcher {
	return &restyFetcher{client: resty.NewWithClient(hc)}
}

func (f *restyFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	r := f.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}

	final := req.URL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		URL:        final,
	}, nil
}
