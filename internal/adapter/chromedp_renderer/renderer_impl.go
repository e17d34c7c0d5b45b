// Package chromedp_renderer renders script-driven pages in headless Chrome.
package chromedp_renderer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/adapter/httpfetch"
	"github.com/user/source-crawler/pkg/config"
)

// DefaultNavigationTimeout bounds page load, excluding the render wait.
const DefaultNavigationTimeout = 30 * time.Second

// Options configures the browser session.
type Options struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
}

// ChromedpRenderer starts a fresh browser for every page.
type ChromedpRenderer struct {
	allocOpts []chromedp.ExecAllocatorOption
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChromedpRenderer creates a renderer. Chrome is not launched until the first Render.
func NewChromedpRenderer(opts Options, logger *zap.Logger) *ChromedpRenderer {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}

	return &ChromedpRenderer{
		allocOpts: allocatorOptions(opts),
		timeout:   opts.NavigationTimeout,
		logger:    logger,
	}
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)
}

// Render navigates to url, waits for client-side rendering and returns the
// document's outer HTML. The browser is torn down before Render returns.
func (r *ChromedpRenderer) Render(ctx context.Context, url string, wait time.Duration) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer cancelBrowser()

	taskCtx, cancel := context.WithTimeout(browserCtx, r.timeout+wait)
	defer cancel()

	// status of the first document response; later ones belong to frames
	var status atomic.Int64
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument && e.Response != nil {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	start := time.Now()
	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		r.logger.Error("Failed to render page", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	if err := checkStatus(url, status.Load()); err != nil {
		return "", err
	}

	r.logger.Debug("Rendered page",
		zap.String("url", url),
		zap.Int64("status", status.Load()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(html)))
	return html, nil
}

// checkStatus treats a missing status as success, since some navigations
// (cached or local documents) report none.
func checkStatus(url string, status int64) error {
	if status == 0 || (status >= 200 && status < 300) {
		return nil
	}
	return &httpfetch.StatusError{URL: url, StatusCode: int(status)}
}
