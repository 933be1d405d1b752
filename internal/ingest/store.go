package ingest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/querylab/vectorrank/pkg/errors"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/postgres"
)

// Store persists accepted documents. Writes are idempotent: a request
// carrying an idempotency key the store has seen before returns the
// original document instead of inserting a duplicate.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a Store backed by the given PostgreSQL client.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: logger.WithComponent("ingest-store"),
	}
}

// Insert persists the document and returns its assigned ID. A duplicate
// idempotency key returns the existing document; a concurrent insert
// racing on the same key returns ErrIdempotencyConflict.
func (s *Store) Insert(ctx context.Context, req *IngestRequest) (*IngestResponse, error) {
	contentHash := fmt.Sprintf("%x", sha256.Sum256([]byte(req.Body)))

	if req.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			s.logger.Info("duplicate ingest detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.DocumentID)
			return existing, nil
		}
	}

	var docID string
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO documents (title, body, content_hash, idempotency_key, status)
			 VALUES ($1, $2, $3, $4, 'ACTIVE')
			 ON CONFLICT (idempotency_key) DO NOTHING
			 RETURNING id`,
			req.Title, req.Body, contentHash, nullableString(req.IdempotencyKey)).Scan(&docID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.New(apperrors.ErrIdempotencyConflict, http.StatusConflict, "idempotency key already in use")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	return &IngestResponse{
		DocumentID:  docID,
		Status:      "ACTIVE",
		ContentHash: contentHash,
	}, nil
}

func (s *Store) findByIdempotencyKey(ctx context.Context, key string) (*IngestResponse, error) {
	var resp IngestResponse
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, status, content_hash FROM documents WHERE idempotency_key = $1`,
		key).Scan(&resp.DocumentID, &resp.Status, &resp.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

// nullableString maps the empty string to SQL NULL so keyless documents
// never collide on the idempotency_key unique constraint.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
