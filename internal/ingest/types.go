// Package ingest accepts documents over HTTP, persists them to
// PostgreSQL, and publishes ingest events that drive model rebuilds.
// Ingested documents become searchable after the next rebuild picks
// them up from the database.
package ingest

import (
	"fmt"
	"strings"
)

// IngestRequest is the JSON body accepted by the ingest endpoint.
type IngestRequest struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	IdempotencyKey string `json:"idempotency_key"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID  string `json:"document_id"`
	Status      string `json:"status"`
	ContentHash string `json:"content_hash"`
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}
