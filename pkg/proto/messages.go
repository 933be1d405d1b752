// Package proto defines the shared message types for the admin RPC
// interface and the Kafka event payloads.
//
// The types are hand-written with JSON struct tags and travel over the
// lightweight JSON-over-TCP RPC layer (see pkg/rpc) and the Kafka
// topics.
package proto

// ---------- Common ----------

// Document is the wire form of a stored document.
type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	ContentHash string `json:"content_hash"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
}

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Search ----------

// SearchRequest is the input to the Model.Search RPC.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int32  `json:"limit"`
}

// SearchResponse is the output of the Model.Search RPC.
type SearchResponse struct {
	Query     string         `json:"query"`
	TotalHits int32          `json:"total_hits"`
	Results   []SearchResult `json:"results"`
	LatencyMs int64          `json:"latency_ms"`
}

// SearchResult is a single scored document in the result set.
type SearchResult struct {
	DocID string  `json:"doc_id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// ---------- Model admin ----------

// StatsRequest asks for serving-model statistics.
type StatsRequest struct{}

// StatsResponse describes the serving model.
type StatsResponse struct {
	Ready           bool   `json:"ready"`
	Source          string `json:"source"`
	Documents       int64  `json:"documents"`
	VocabularyTerms int64  `json:"vocabulary_terms"`
	TFScheme        string `json:"tf_scheme"`
	IDFScheme       string `json:"idf_scheme"`
	Builds          int64  `json:"builds"`
	LastBuildAt     int64  `json:"last_build_at,omitempty"`
	LastBuildMs     int64  `json:"last_build_ms,omitempty"`
}

// RebuildRequest triggers a model rebuild from the configured source.
type RebuildRequest struct{}

// RebuildResponse confirms the rebuild.
type RebuildResponse struct {
	Success         bool   `json:"success"`
	Documents       int64  `json:"documents"`
	VocabularyTerms int64  `json:"vocabulary_terms"`
	DurationMs      int64  `json:"duration_ms"`
	Message         string `json:"message,omitempty"`
}

// TermRequest looks up a single vocabulary term.
type TermRequest struct {
	Term string `json:"term"`
}

// TermResponse reports a term's corpus statistics.
type TermResponse struct {
	Term              string  `json:"term"`
	InVocabulary      bool    `json:"in_vocabulary"`
	DocumentFrequency int64   `json:"document_frequency"`
	IDF               float64 `json:"idf"`
}

// ---------- Kafka events ----------

// IngestEvent is published to the document-ingest topic when a document
// is accepted.
type IngestEvent struct {
	DocumentID  string `json:"document_id"`
	Title       string `json:"title"`
	ContentHash string `json:"content_hash"`
	OccurredAt  int64  `json:"occurred_at"`
}

// BuildEvent is published to the model-builds topic after every build
// attempt.
type BuildEvent struct {
	Documents       int64  `json:"documents"`
	VocabularyTerms int64  `json:"vocabulary_terms"`
	DurationMs      int64  `json:"duration_ms"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	OccurredAt      int64  `json:"occurred_at"`
}

// SearchEvent is published to the search-events topic for query
// analytics.
type SearchEvent struct {
	Query      string  `json:"query"`
	TotalHits  int64   `json:"total_hits"`
	TopScore   float64 `json:"top_score"`
	CacheHit   bool    `json:"cache_hit"`
	LatencyUs  int64   `json:"latency_us"`
	OccurredAt int64   `json:"occurred_at"`
}
