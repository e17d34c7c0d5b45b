package extractor

import (
	"context"
	"errors"
	"time"
)

var errUnreachable = errors.New("dial tcp: connection refused")

type stubFetcher struct {
	bodies map[string]string
	err    error
	calls  int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, errUnreachable
	}
	return []byte(body), nil
}

func fetcherFor(url, body string) *stubFetcher {
	return &stubFetcher{bodies: map[string]string{url: body}}
}

type stubRenderer struct {
	html    string
	err     error
	gotURL  string
	gotWait time.Duration
}

func (r *stubRenderer) Render(_ context.Context, url string, wait time.Duration) (string, error) {
	r.gotURL = url
	r.gotWait = wait
	return r.html, r.err
}
