package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/querylab/vectorrank/internal/events"
	"github.com/querylab/vectorrank/pkg/config"
	apperrors "github.com/querylab/vectorrank/pkg/errors"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/metrics"
	"github.com/querylab/vectorrank/pkg/proto"
)

// Inserter is the slice of the store the handler depends on.
type Inserter interface {
	Insert(ctx context.Context, req *IngestRequest) (*IngestResponse, error)
}

// Handler serves the document intake endpoint.
type Handler struct {
	store      Inserter
	collector  *events.Collector
	metrics    *metrics.Metrics
	cfg        config.IngestConfig
	onAccepted func()
	logger     *slog.Logger
}

// NewHandler creates a Handler. collector may be nil when Kafka is
// disabled; onAccepted, when set, runs after every accepted document
// (the server uses it to schedule a rebuild).
func NewHandler(store Inserter, collector *events.Collector, m *metrics.Metrics, cfg config.IngestConfig, onAccepted func()) *Handler {
	return &Handler{
		store:      store,
		collector:  collector,
		metrics:    m,
		cfg:        cfg,
		onAccepted: onAccepted,
		logger:     logger.WithComponent("ingest-handler"),
	}
}

// Ingest handles POST /api/v1/documents. Accepted documents become
// searchable after the next model rebuild, hence 202 rather than 201.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	// The JSON envelope adds overhead on top of the document body.
	if h.cfg.MaxBodyBytes > 0 {
		limit := h.cfg.MaxBodyBytes + int64(h.cfg.MaxTitleLen) + 4096
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := ValidateRequest(&req, h.cfg); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.store.Insert(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingest failed", "error", err, "status_code", statusCode)
		h.writeError(w, statusCode, "ingest failed")
		return
	}

	h.metrics.DocsIngestedTotal.Inc()
	log.Info("document accepted", "doc_id", resp.DocumentID)

	if h.collector != nil {
		h.collector.TrackIngest(proto.IngestEvent{
			DocumentID:  resp.DocumentID,
			Title:       req.Title,
			ContentHash: resp.ContentHash,
			OccurredAt:  time.Now().UTC().Unix(),
		})
	}
	if h.onAccepted != nil {
		h.onAccepted()
	}

	h.writeJSON(w, http.StatusAccepted, resp)
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
