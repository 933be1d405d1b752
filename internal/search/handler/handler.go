// Package handler exposes search and model-introspection endpoints over
// HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/querylab/vectorrank/internal/events"
	"github.com/querylab/vectorrank/internal/search"
	"github.com/querylab/vectorrank/internal/search/cache"
	"github.com/querylab/vectorrank/pkg/config"
	apperrors "github.com/querylab/vectorrank/pkg/errors"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/metrics"
	"github.com/querylab/vectorrank/pkg/proto"
	"github.com/querylab/vectorrank/pkg/tracing"
)

// Searcher is the slice of the search service the handler depends on.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*search.Result, error)
	Stats() search.Stats
	Term(term string) (search.TermInfo, error)
}

// Handler serves the public search API.
type Handler struct {
	searcher  Searcher
	cache     *cache.QueryCache
	collector *events.Collector
	sampler   *tracing.Sampler
	metrics   *metrics.Metrics
	cfg       config.SearchConfig
	logger    *slog.Logger
}

// New creates a Handler. queryCache and collector may be nil when Redis
// or Kafka are disabled.
func New(searcher Searcher, queryCache *cache.QueryCache, collector *events.Collector, sampler *tracing.Sampler, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		searcher:  searcher,
		cache:     queryCache,
		collector: collector,
		sampler:   sampler,
		metrics:   m,
		cfg:       cfg,
		logger:    logger.WithComponent("search-handler"),
	}
}

type searchResponse struct {
	*search.Result
	CacheHit  bool  `json:"cache_hit"`
	LatencyMs int64 `json:"latency_ms"`
}

// Search handles GET /api/v1/search?q=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	if h.cfg.MaxQueryBytes > 0 && len(query) > h.cfg.MaxQueryBytes {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("query exceeds %d bytes", h.cfg.MaxQueryBytes))
		return
	}

	limit := h.cfg.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if h.cfg.MaxLimit > 0 && parsed > h.cfg.MaxLimit {
			parsed = h.cfg.MaxLimit
		}
		limit = parsed
	}

	requestID, _ := logger.RequestID(ctx)
	ctx, span := tracing.StartSpan(ctx, "search-request", requestID, h.sampler.Sample())

	var result *search.Result
	var err error
	cacheHit := false

	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, func() (*search.Result, error) {
			return h.searcher.Search(ctx, query, limit)
		})
	} else {
		result, err = h.searcher.Search(ctx, query, limit)
	}

	if err != nil {
		span.End()
		h.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	elapsed := time.Since(start)
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	} else if h.cache == nil {
		cacheStatus = "bypass"
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())

	span.SetAttr("total_hits", result.TotalHits)
	span.SetAttr("cache_hit", cacheHit)
	span.End()
	span.Log()

	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", elapsed.Milliseconds(),
	)

	if h.collector != nil {
		var topScore float64
		if len(result.Results) > 0 {
			topScore = result.Results[0].Score
		}
		h.collector.TrackSearch(proto.SearchEvent{
			Query:      query,
			TotalHits:  int64(result.TotalHits),
			TopScore:   topScore,
			CacheHit:   cacheHit,
			LatencyUs:  elapsed.Microseconds(),
			OccurredAt: time.Now().UTC().Unix(),
		})
	}

	h.writeJSON(w, http.StatusOK, searchResponse{
		Result:    result,
		CacheHit:  cacheHit,
		LatencyMs: elapsed.Milliseconds(),
	})
}

// ModelStats handles GET /api/v1/model/stats.
func (h *Handler) ModelStats(w http.ResponseWriter, r *http.Request) {
	stats := h.searcher.Stats()
	resp := proto.StatsResponse{
		Ready:           stats.Ready,
		Source:          stats.Source,
		Documents:       int64(stats.Documents),
		VocabularyTerms: int64(stats.VocabularyTerms),
		TFScheme:        stats.TFScheme,
		IDFScheme:       stats.IDFScheme,
		Builds:          stats.Builds,
		LastBuildMs:     stats.LastBuildMs,
	}
	if !stats.LastBuildAt.IsZero() {
		resp.LastBuildAt = stats.LastBuildAt.UTC().Unix()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Term handles GET /api/v1/model/terms/{term}.
func (h *Handler) Term(w http.ResponseWriter, r *http.Request) {
	term := r.PathValue("term")
	if term == "" {
		h.writeError(w, http.StatusBadRequest, "term is required")
		return
	}

	info, err := h.searcher.Term(term)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, proto.TermResponse{
		Term:              info.Term,
		InVocabulary:      info.InVocabulary,
		DocumentFrequency: int64(info.DocumentFrequency),
		IDF:               info.IDF,
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
