package ingest

import (
	"fmt"
	"strings"

	"github.com/querylab/vectorrank/pkg/config"
)

const maxIdempotencyKeyLen = 255

// ValidateRequest checks the request against the configured limits and
// returns a ValidationError naming every failing field.
func ValidateRequest(req *IngestRequest, cfg config.IngestConfig) error {
	errs := make(map[string]string)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if cfg.MaxTitleLen > 0 && len(title) > cfg.MaxTitleLen {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", cfg.MaxTitleLen)
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		errs["body"] = "body is required and must not be empty"
	} else if cfg.MaxBodyBytes > 0 && int64(len(body)) > cfg.MaxBodyBytes {
		errs["body"] = fmt.Sprintf("body must be at most %d bytes", cfg.MaxBodyBytes)
	}

	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		errs["idempotency_key"] = fmt.Sprintf("idempotency key must be at most %d characters", maxIdempotencyKeyLen)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
