package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/delivery/http/request"
	"github.com/user/source-crawler/internal/delivery/http/response"
	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
	"github.com/user/source-crawler/internal/usecase"
)

const notScheduled = "Not scheduled"

// Scheduler is the part of the scheduler exposed over HTTP.
type Scheduler interface {
	NextRuns() map[string]time.Time
	CrawlAll(ctx context.Context) ([]entity.CrawlResult, error)
}

type Handler struct {
	manager   usecase.SourceManager
	scheduler Scheduler
	logger    *zap.Logger
}

func NewHandler(manager usecase.SourceManager, scheduler Scheduler, logger *zap.Logger) *Handler {
	return &Handler{
		manager:   manager,
		scheduler: scheduler,
		logger:    logger,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.manager.ListSources(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, "list sources", err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.SourcesResponse{Count: len(sources), Sources: sources})
}

func (h *Handler) HandleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req request.SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	src, err := h.manager.CreateSource(r.Context(), req.ToEntity())
	if err != nil {
		h.writeError(w, "create source", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, src)
}

func (h *Handler) HandleGetSource(w http.ResponseWriter, r *http.Request) {
	src, err := h.manager.GetSource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get source", err)
		return
	}
	h.writeJSON(w, http.StatusOK, src)
}

func (h *Handler) HandleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.DeleteSource(r.Context(), id); err != nil {
		h.writeError(w, "delete source", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Source deleted", "_id": id})
}

// HandleCrawlSource crawls a stored source immediately.
func (h *Handler) HandleCrawlSource(w http.ResponseWriter, r *http.Request) {
	result, err := h.manager.CrawlSource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "crawl source", err)
		return
	}
	h.writeCrawlResult(w, result, nil)
}

// HandleCrawlNow crawls the source described by the request body without storing it.
func (h *Handler) HandleCrawlNow(w http.ResponseWriter, r *http.Request) {
	var req request.SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, items := h.manager.CrawlNow(r.Context(), req.ToEntity())
	h.writeCrawlResult(w, result, items)
}

func (h *Handler) HandleCrawlAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.scheduler.CrawlAll(r.Context())
	if err != nil {
		h.writeError(w, "crawl all sources", err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.CrawlAllResponse{Crawled: len(results), Results: results})
}

func (h *Handler) HandleSourceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	latest, err := h.manager.LatestStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, "load source status", err)
		return
	}
	history, err := h.manager.StatusHistory(r.Context(), id, queryInt(r, "limit", 0))
	if err != nil {
		h.logger.Warn("Failed to load status history", zap.String("source_id", id), zap.Error(err))
	}

	h.writeJSON(w, http.StatusOK, response.SourceStatusResponse{SourceID: id, Latest: latest, History: history})
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req request.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	q, err := req.ToQuery()
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	items, err := h.manager.Search(r.Context(), q)
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.SearchResponse{Count: len(items), Items: items})
}

func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.manager.Logs(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		h.writeError(w, "load crawl logs", err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.LogsResponse{Count: len(logs), Logs: logs})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.Stats(r.Context())
	if err != nil {
		h.writeError(w, "load stats", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	jobs := make(map[string]string)
	for id, next := range h.scheduler.NextRuns() {
		if next.IsZero() {
			jobs[id] = notScheduled
			continue
		}
		jobs[id] = next.Format(time.RFC3339)
	}
	h.writeJSON(w, http.StatusOK, response.ScheduleResponse{Jobs: jobs})
}

// writeCrawlResult answers 200 for a successful crawl and 400 otherwise.
func (h *Handler) writeCrawlResult(w http.ResponseWriter, result entity.CrawlResult, items []entity.DataItem) {
	resp := response.CrawlResponse{
		Success: result.Status == entity.CrawlStatusSuccess,
		Result:  result,
		Data:    items,
	}
	if resp.Success {
		resp.Message = "Collected " + strconv.Itoa(result.ItemsCollected) + " items"
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Message = strings.Join(result.Errors, "; ")
	h.writeJSON(w, http.StatusBadRequest, resp)
}

// writeError maps use case errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrSourceNotFound):
		h.writeJSONError(w, "Source not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvalidSource), errors.Is(err, usecase.ErrInvalidSearch):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrSourceExists):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repository.ErrStoreUnavailable):
		h.writeJSONError(w, "Storage unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
