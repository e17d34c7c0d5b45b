package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/source-crawler/pkg/config"
)

const (
	DefaultTimeout = 30 * time.Second

	// MaxBodySize caps how much of a response is read into memory.
	MaxBodySize = int64(50 * 1024 * 1024)
)

// ErrBodyTooLarge is returned when a response exceeds the body size cap.
// Bodies are never truncated.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Fetcher retrieves remote payloads with a shared, reusable http.Client.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent overrides the default desktop user agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithProxies routes requests through the given proxies, rotating per request.
func WithProxies(pm *ProxyManager) Option {
	return func(f *Fetcher) {
		if pm == nil || pm.Len() == 0 {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = pm.ProxyFunc()
		f.client.Transport = transport
	}
}

// WithMaxBodySize overrides MaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithHTTPClient replaces the underlying client. Its timeout is kept as is.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// New creates a Fetcher whose requests are bounded by timeout.
func New(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: config.DefaultUserAgent,
		maxBody:   MaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET. There is no retry: a failed fetch is reported immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: new request: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("fetch %s: %w (limit %d bytes)", url, ErrBodyTooLarge, f.maxBody)
	}
	return body, nil
}
