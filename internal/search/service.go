// Package search serves ranked queries from an immutable in-memory
// model and coordinates rebuilds when the corpus changes. The serving
// model is swapped atomically: queries in flight keep the model they
// started with, and a failed rebuild leaves the previous model serving.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/querylab/vectorrank/internal/source"
	"github.com/querylab/vectorrank/internal/vsm"
	"github.com/querylab/vectorrank/pkg/config"
	apperrors "github.com/querylab/vectorrank/pkg/errors"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/metrics"
	"github.com/querylab/vectorrank/pkg/resilience"
	"github.com/querylab/vectorrank/pkg/tracing"
)

// ScoredDoc is a single ranked document in a search result.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Result is the outcome of one query: the top-ranked documents and how
// many corpus documents matched at all.
type Result struct {
	Query     string      `json:"query"`
	TotalHits int         `json:"total_hits"`
	Results   []ScoredDoc `json:"results"`
}

// BuildInfo summarises one completed model build.
type BuildInfo struct {
	Documents       int
	VocabularyTerms int
	Duration        time.Duration
}

// Stats describes the serving model.
type Stats struct {
	Ready           bool
	Source          string
	Documents       int
	VocabularyTerms int
	TFScheme        string
	IDFScheme       string
	Builds          int64
	LastBuildAt     time.Time
	LastBuildMs     int64
}

// TermInfo reports a vocabulary term's corpus statistics.
type TermInfo struct {
	Term              string  `json:"term"`
	InVocabulary      bool    `json:"in_vocabulary"`
	DocumentFrequency int     `json:"document_frequency"`
	IDF               float64 `json:"idf"`
}

// Service owns the model lifecycle and answers queries against the
// current model.
type Service struct {
	src     source.Source
	rule    vsm.Rule
	cfg     config.ModelConfig
	search  config.SearchConfig
	opts    vsm.Options
	metrics *metrics.Metrics
	logger  *slog.Logger

	model atomic.Pointer[vsm.Model]

	buildMu     sync.Mutex
	builds      atomic.Int64
	lastBuildAt atomic.Int64
	lastBuildMs atomic.Int64

	// onSwap hooks run after a new model goes live (cache invalidation);
	// onBuild hooks observe every build attempt, successful or not.
	hookMu  sync.Mutex
	onSwap  []func(ctx context.Context, info BuildInfo)
	onBuild []func(ctx context.Context, info BuildInfo, err error)

	sem chan struct{}
}

// New creates a Service. The model is not built yet; call Rebuild before
// serving, or let the caller decide whether a failed first build is
// fatal.
func New(src source.Source, modelCfg config.ModelConfig, searchCfg config.SearchConfig, m *metrics.Metrics) (*Service, error) {
	weighting, err := WeightingFromConfig(modelCfg)
	if err != nil {
		return nil, err
	}

	maxConcurrent := searchCfg.MaxConcurrentQueries
	if maxConcurrent <= 0 {
		maxConcurrent = 64
	}

	return &Service{
		src:     src,
		rule:    vsm.DefaultRule(),
		cfg:     modelCfg,
		search:  searchCfg,
		opts:    vsm.Options{Weighting: weighting, Workers: modelCfg.BuildWorkers},
		metrics: m,
		logger:  logger.WithComponent("search-service"),
		sem:     make(chan struct{}, maxConcurrent),
	}, nil
}

// WeightingFromConfig maps the config scheme names onto model weighting
// options.
func WeightingFromConfig(cfg config.ModelConfig) (vsm.Weighting, error) {
	var w vsm.Weighting
	switch cfg.TFScheme {
	case "", "raw":
		w.TF = vsm.TFRaw
	case "sublinear":
		w.TF = vsm.TFSublinear
	default:
		return w, fmt.Errorf("unknown tf scheme %q", cfg.TFScheme)
	}
	switch cfg.IDFScheme {
	case "", "plain":
		w.IDF = vsm.IDFPlain
	case "plusone":
		w.IDF = vsm.IDFPlusOne
	case "smoothed":
		w.IDF = vsm.IDFSmoothed
	default:
		return w, fmt.Errorf("unknown idf scheme %q", cfg.IDFScheme)
	}
	return w, nil
}

// OnSwap registers a hook to run after every successful model swap.
func (s *Service) OnSwap(fn func(ctx context.Context, info BuildInfo)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onSwap = append(s.onSwap, fn)
}

// OnBuild registers a hook to run after every build attempt.
func (s *Service) OnBuild(fn func(ctx context.Context, info BuildInfo, err error)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onBuild = append(s.onBuild, fn)
}

func (s *Service) notifyBuild(ctx context.Context, info BuildInfo, err error) {
	s.hookMu.Lock()
	hooks := make([]func(context.Context, BuildInfo, error), len(s.onBuild))
	copy(hooks, s.onBuild)
	s.hookMu.Unlock()
	for _, hook := range hooks {
		hook(ctx, info, err)
	}
}

// Ready reports whether a model is serving.
func (s *Service) Ready() bool {
	return s.model.Load() != nil
}

// Rebuild loads the corpus from the source and builds a fresh model.
// Concurrent calls are serialised. On failure the previous model keeps
// serving and the error is returned.
func (s *Service) Rebuild(ctx context.Context) (BuildInfo, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	var docs []source.Document
	err := resilience.Retry(ctx, "corpus-load", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		var loadErr error
		docs, loadErr = s.src.Load(ctx)
		return loadErr
	})
	if err != nil {
		s.metrics.ObserveBuild(0, 0, 0, err)
		wrapped := fmt.Errorf("loading corpus: %w", err)
		s.notifyBuild(ctx, BuildInfo{}, wrapped)
		return BuildInfo{}, wrapped
	}

	corpus := make([]vsm.Document, len(docs))
	for i, d := range docs {
		corpus[i] = d
	}

	model, err := vsm.Build(corpus, s.rule, s.opts)
	if err != nil {
		s.metrics.ObserveBuild(0, 0, 0, err)
		s.logger.Error("model build failed", "error", err, "documents", len(docs))
		s.notifyBuild(ctx, BuildInfo{}, err)
		return BuildInfo{}, err
	}

	elapsed := time.Since(start)
	s.model.Store(model)
	s.builds.Add(1)
	s.lastBuildAt.Store(start.UnixNano())
	s.lastBuildMs.Store(elapsed.Milliseconds())
	s.metrics.ObserveBuild(elapsed.Seconds(), model.DocumentCount(), model.VocabularySize(), nil)

	info := BuildInfo{
		Documents:       model.DocumentCount(),
		VocabularyTerms: model.VocabularySize(),
		Duration:        elapsed,
	}
	s.logger.Info("model built",
		"documents", info.Documents,
		"vocabulary_terms", info.VocabularyTerms,
		"duration_ms", elapsed.Milliseconds(),
		"source", s.src.Name())

	s.hookMu.Lock()
	hooks := make([]func(context.Context, BuildInfo), len(s.onSwap))
	copy(hooks, s.onSwap)
	s.hookMu.Unlock()
	for _, hook := range hooks {
		hook(ctx, info)
	}
	s.notifyBuild(ctx, info, nil)

	return info, nil
}

// Search ranks the corpus against query and returns the top limit
// documents. Every document is scored; total hits counts those with a
// positive score. Returns ErrModelNotReady before the first successful
// build.
func (s *Service) Search(ctx context.Context, query string, limit int) (*Result, error) {
	model := s.model.Load()
	if model == nil {
		return nil, apperrors.New(apperrors.ErrModelNotReady, http.StatusServiceUnavailable, "no model built yet")
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable, "query admission: %v", ctx.Err())
	}

	var ranked []vsm.Result
	err := resilience.WithTimeout(ctx, s.search.QueryTimeout, "model-query", func(ctx context.Context) error {
		_, span := tracing.StartChildSpan(ctx, "model-query")
		ranked = model.Query(query)
		span.SetAttr("documents", len(ranked))
		span.End()
		return nil
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable, "query: %v", err)
	}

	totalHits := 0
	for _, r := range ranked {
		if r.Score > 0 {
			totalHits++
		}
	}

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]ScoredDoc, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, toScoredDoc(r))
	}

	outcome := "scored"
	if totalHits == 0 {
		outcome = "zero_result"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	s.metrics.SearchResultsCount.Observe(float64(len(out)))

	return &Result{
		Query:     query,
		TotalHits: totalHits,
		Results:   out,
	}, nil
}

func toScoredDoc(r vsm.Result) ScoredDoc {
	sd := ScoredDoc{Score: r.Score}
	switch doc := r.Doc.(type) {
	case source.Document:
		sd.DocID = doc.ID
		sd.Title = doc.Title
	default:
		text := doc.Text()
		if len(text) > 80 {
			text = text[:80]
		}
		sd.Title = text
	}
	return sd
}

// CanonicalQuery reduces a query to its scoring-relevant form: the
// normalised, sorted token multiset. Queries that rank identically map
// to the same canonical string, which makes it the cache key.
func (s *Service) CanonicalQuery(query string) string {
	tokens := vsm.Tokenize(s.rule.Normalize(query))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Stats reports the serving model's shape and build history.
func (s *Service) Stats() Stats {
	stats := Stats{
		Source:    s.src.Name(),
		TFScheme:  schemeOrDefault(s.cfg.TFScheme, "raw"),
		IDFScheme: schemeOrDefault(s.cfg.IDFScheme, "plain"),
		Builds:    s.builds.Load(),
	}
	if at := s.lastBuildAt.Load(); at > 0 {
		stats.LastBuildAt = time.Unix(0, at)
		stats.LastBuildMs = s.lastBuildMs.Load()
	}
	if model := s.model.Load(); model != nil {
		stats.Ready = true
		stats.Documents = model.DocumentCount()
		stats.VocabularyTerms = model.VocabularySize()
	}
	return stats
}

func schemeOrDefault(scheme, fallback string) string {
	if scheme == "" {
		return fallback
	}
	return scheme
}

// Term looks up one term in the serving model's vocabulary.
func (s *Service) Term(term string) (TermInfo, error) {
	model := s.model.Load()
	if model == nil {
		return TermInfo{}, apperrors.New(apperrors.ErrModelNotReady, http.StatusServiceUnavailable, "no model built yet")
	}

	tokens := vsm.Tokenize(s.rule.Normalize(term))
	if len(tokens) != 1 {
		return TermInfo{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "expected a single term, got %d tokens", len(tokens))
	}

	info := TermInfo{Term: tokens[0]}
	if idf, ok := model.IDF(tokens[0]); ok {
		info.InVocabulary = true
		info.IDF = idf
		info.DocumentFrequency = model.DocumentFrequency(tokens[0])
	}
	return info, nil
}
