package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/postgres"
)

// Postgres loads the corpus from the documents table. Rows come back
// ordered by insertion so rebuilds keep document order stable.
type Postgres struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewPostgres creates a PostgreSQL-backed source.
func NewPostgres(db *postgres.Client) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger.WithComponent("postgres-source"),
	}
}

func (p *Postgres) Name() string { return "postgres" }

// Load selects every active document.
func (p *Postgres) Load(ctx context.Context) ([]Document, error) {
	rows, err := p.db.DB.QueryContext(ctx,
		`SELECT id, title, body
		 FROM documents
		 WHERE status <> 'DELETED'
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}

	p.logger.Info("corpus loaded", "documents", len(docs))
	return docs, nil
}
