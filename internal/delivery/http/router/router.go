package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/delivery/http/handler"
	"github.com/user/source-crawler/internal/delivery/http/middleware"
	"github.com/user/source-crawler/pkg/metrics"
)

// requestTimeout leaves room for a sequential crawl of several sources.
const requestTimeout = 10 * time.Minute

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/crawl", h.HandleCrawlNow)
		r.Post("/crawl-all", h.HandleCrawlAll)
		r.Post("/search", h.HandleSearch)
		r.Get("/logs", h.HandleLogs)
		r.Get("/stats", h.HandleStats)
		r.Get("/schedule", h.HandleSchedule)

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.HandleListSources)
			r.Post("/", h.HandleCreateSource)
			r.Get("/{id}", h.HandleGetSource)
			r.Delete("/{id}", h.HandleDeleteSource)
			r.Post("/{id}/crawl", h.HandleCrawlSource)
			r.Get("/{id}/status", h.HandleSourceStatus)
		})
	})

	return r
}
