package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/querylab/vectorrank/pkg/proto"
	"github.com/querylab/vectorrank/pkg/rpc"
)

// RegisterAdmin wires the model administration methods onto the RPC
// server. These mirror the HTTP endpoints but stay reachable even when
// the public listener is saturated.
func RegisterAdmin(srv *rpc.Server, svc *Service) {
	srv.Register("Model.Health", func(ctx context.Context, req json.RawMessage) (any, error) {
		status := "NOT_SERVING"
		if svc.Ready() {
			status = "SERVING"
		}
		return &proto.HealthCheckResponse{Status: status}, nil
	})

	srv.Register("Model.Stats", func(ctx context.Context, req json.RawMessage) (any, error) {
		stats := svc.Stats()
		resp := &proto.StatsResponse{
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
		return resp, nil
	})

	srv.Register("Model.Search", func(ctx context.Context, req json.RawMessage) (any, error) {
		var params proto.SearchRequest
		if err := json.Unmarshal(req, &params); err != nil {
			return nil, err
		}
		limit := int(params.Limit)
		if limit <= 0 {
			limit = svc.search.DefaultLimit
		}
		if svc.search.MaxLimit > 0 && limit > svc.search.MaxLimit {
			limit = svc.search.MaxLimit
		}

		start := time.Now()
		result, err := svc.Search(ctx, params.Query, limit)
		if err != nil {
			return nil, err
		}

		resp := &proto.SearchResponse{
			Query:     result.Query,
			TotalHits: int32(result.TotalHits),
			Results:   make([]proto.SearchResult, 0, len(result.Results)),
			LatencyMs: time.Since(start).Milliseconds(),
		}
		for _, doc := range result.Results {
			resp.Results = append(resp.Results, proto.SearchResult{
				DocID: doc.DocID,
				Title: doc.Title,
				Score: doc.Score,
			})
		}
		return resp, nil
	})

	srv.Register("Model.Rebuild", func(ctx context.Context, req json.RawMessage) (any, error) {
		info, err := svc.Rebuild(ctx)
		if err != nil {
			return &proto.RebuildResponse{Success: false, Message: err.Error()}, nil
		}
		return &proto.RebuildResponse{
			Success:         true,
			Documents:       int64(info.Documents),
			VocabularyTerms: int64(info.VocabularyTerms),
			DurationMs:      info.Duration.Milliseconds(),
		}, nil
	})

	srv.Register("Model.Term", func(ctx context.Context, req json.RawMessage) (any, error) {
		var params proto.TermRequest
		if err := json.Unmarshal(req, &params); err != nil {
			return nil, err
		}
		info, err := svc.Term(params.Term)
		if err != nil {
			return nil, err
		}
		return &proto.TermResponse{
			Term:              info.Term,
			InVocabulary:      info.InVocabulary,
			DocumentFrequency: int64(info.DocumentFrequency),
			IDF:               info.IDF,
		}, nil
	})
}
