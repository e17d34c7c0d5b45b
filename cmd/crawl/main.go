package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/user/source-crawler/internal/adapter/chromedp_renderer"
	"github.com/user/source-crawler/internal/adapter/httpfetch"
	"github.com/user/source-crawler/internal/adapter/memory"
	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/extractor"
	"github.com/user/source-crawler/internal/usecase"
	"github.com/user/source-crawler/pkg/config"
	"github.com/user/source-crawler/pkg/logger"
	"github.com/user/source-crawler/pkg/metrics"
)

type runFlags struct {
	url        string
	sourceType string
	selectors  []string
	maxItems   int
	wait       int
	timeout    time.Duration
	userAgent  string
	logLevel   string
}

// output is what gets printed: the crawl result and the items it produced.
type output struct {
	Result entity.CrawlResult `json:"result"`
	Items  []entity.DataItem  `json:"items"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crawl",
		Short:         "Crawl a single source and print what it yields",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch a source once and print the result as JSON",
		Example: `  crawl run --url https://example.com/blog --selector container=.post --selector title=h2
  crawl run --url https://example.com/feed.xml --type rss --max-items 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := f.source()
			if err != nil {
				return err
			}
			return run(cmd.Context(), f, src)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "source URL (required)")
	cmd.Flags().StringVar(&f.sourceType, "type", string(entity.SourceTypeHTML), "source type: html, rss, pdf, xml, txt or dynamic")
	cmd.Flags().StringArrayVar(&f.selectors, "selector", nil, "field=css selector, repeatable; \"container\" selects the repeating item, \"title\" sets the item title")
	cmd.Flags().IntVar(&f.maxItems, "max-items", usecase.AdHocMaxItems, "maximum number of items")
	cmd.Flags().IntVar(&f.wait, "wait", 0, "seconds to wait for client-side rendering (dynamic only)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "fetch timeout")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", config.DefaultUserAgent, "User-Agent header")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level written to stderr")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func (f runFlags) source() (entity.Source, error) {
	var selectors entity.SelectorMap
	for _, s := range f.selectors {
		field, rule, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return entity.Source{}, fmt.Errorf("invalid --selector %q, expected field=selector", s)
		}
		selectors = selectors.Set(strings.TrimSpace(field), strings.TrimSpace(rule))
	}

	if f.maxItems <= 0 {
		f.maxItems = usecase.AdHocMaxItems
	}

	src := entity.Source{
		ID:          usecase.AdHocSourceID,
		URL:         f.url,
		Type:        entity.SourceType(f.sourceType),
		Selectors:   selectors,
		MaxItems:    f.maxItems,
		WaitSeconds: f.wait,
	}
	if !src.Type.Valid() {
		return entity.Source{}, fmt.Errorf("unsupported source type: %s", f.sourceType)
	}
	return src, nil
}

func run(ctx context.Context, f runFlags, src entity.Source) error {
	// production logs go to stderr, leaving stdout for the JSON output
	log, err := logger.New(f.logLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	store := memory.NewItemRepo()
	fetcher := httpfetch.New(f.timeout, httpfetch.WithUserAgent(f.userAgent))
	renderer := chromedp_renderer.NewChromedpRenderer(chromedp_renderer.Options{
		Headless:  true,
		UserAgent: f.userAgent,
	}, log)

	dispatcher := usecase.NewDispatcher(
		extractor.NewRegistry(fetcher, renderer, log),
		store, nil, nil,
		metrics.New(prometheus.NewRegistry()),
		log,
	)
	result := dispatcher.Crawl(ctx, src)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{Result: result, Items: store.Items()}); err != nil {
		return err
	}
	if result.Status != entity.CrawlStatusSuccess {
		return fmt.Errorf("crawl finished with status %s", result.Status)
	}
	return nil
}
