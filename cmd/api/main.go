package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/adapter/chromedp_renderer"
	"github.com/user/source-crawler/internal/adapter/httpfetch"
	"github.com/user/source-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/source-crawler/internal/adapter/redis"
	"github.com/user/source-crawler/internal/delivery/http/handler"
	"github.com/user/source-crawler/internal/delivery/http/router"
	"github.com/user/source-crawler/internal/delivery/http/server"
	"github.com/user/source-crawler/internal/extractor"
	"github.com/user/source-crawler/internal/repository"
	"github.com/user/source-crawler/internal/scheduler"
	"github.com/user/source-crawler/internal/usecase"
	"github.com/user/source-crawler/pkg/config"
	"github.com/user/source-crawler/pkg/logger"
	"github.com/user/source-crawler/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	// The service still starts without PostgreSQL; crawls that yield items
	// then report the store as unavailable.
	pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("PostgreSQL unavailable, running without storage", zap.Error(err))
	} else {
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal("Failed to apply schema", zap.Error(err))
		}
		log.Info("PostgreSQL connection pool established")
	}

	var statusRepo repository.StatusRepository
	rdb, err := redis_adapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn("Redis unavailable, crawl status will not be cached", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		statusRepo = redis_adapter.NewStatusRepo(rdb, cfg.StatusTTL())
		log.Info("Redis connection established")
	}

	itemRepo := postgres.NewItemRepo(pool)
	logRepo := postgres.NewCrawlLogRepo(pool)
	sourceRepo := postgres.NewSourceRepo(pool)

	// --- Fetching ---
	fetchOpts := []httpfetch.Option{httpfetch.WithUserAgent(cfg.UserAgent)}
	if proxies := cfg.Proxies(); len(proxies) > 0 {
		pm := httpfetch.NewProxyManager(proxies)
		log.Info("Using outbound proxies", zap.Int("count", pm.Len()))
		fetchOpts = append(fetchOpts, httpfetch.WithProxies(pm))
	}
	fetcher := httpfetch.New(cfg.FetchTimeout(), fetchOpts...)
	renderer := chromedp_renderer.NewChromedpRenderer(chromedp_renderer.Options{
		Headless:          cfg.ChromeHeadless,
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.RenderTimeout(),
	}, log)

	// --- Use Cases ---
	dispatcher := usecase.NewDispatcher(
		extractor.NewRegistry(fetcher, renderer, log),
		itemRepo, logRepo, statusRepo, m, log,
	)

	sched := scheduler.New(dispatcher, sourceRepo, cfg.PolitenessDelay(), m, log)
	var sourceScheduler usecase.SourceScheduler
	if cfg.SchedulerEnabled {
		sourceScheduler = sched
		n, err := sched.ScheduleAll(ctx)
		if err != nil {
			log.Warn("Failed to load sources for scheduling", zap.Error(err))
		}
		log.Info("Scheduled active sources", zap.Int("count", n))
		sched.Start()
	}

	manager := usecase.NewSourceManager(sourceRepo, itemRepo, logRepo, statusRepo, dispatcher, sourceScheduler, log)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(manager, sched, log)
	srv := server.New(cfg.ServerPort, router.New(apiHandler, m, prometheus.DefaultGatherer, log), log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}
}
