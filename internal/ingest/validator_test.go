package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/querylab/vectorrank/pkg/config"
)

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		Enabled:      true,
		MaxTitleLen:  64,
		MaxBodyBytes: 256,
	}
}

func TestValidateRequestAccepts(t *testing.T) {
	req := &IngestRequest{Title: "A Title", Body: "some body text", IdempotencyKey: "key-1"}
	if err := ValidateRequest(req, testIngestConfig()); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestValidateRequestFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		req       IngestRequest
		wantField string
	}{
		{"missing title", IngestRequest{Body: "body"}, "title"},
		{"blank title", IngestRequest{Title: "   ", Body: "body"}, "title"},
		{"title too long", IngestRequest{Title: strings.Repeat("x", 65), Body: "body"}, "title"},
		{"missing body", IngestRequest{Title: "t"}, "body"},
		{"blank body", IngestRequest{Title: "t", Body: " \n "}, "body"},
		{"body too large", IngestRequest{Title: "t", Body: strings.Repeat("x", 257)}, "body"},
		{"idempotency key too long", IngestRequest{Title: "t", Body: "b", IdempotencyKey: strings.Repeat("k", 256)}, "idempotency_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req, testIngestConfig())
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if _, ok := validationErr.Fields[tt.wantField]; !ok {
				t.Errorf("expected an error for field %q, got %v", tt.wantField, validationErr.Fields)
			}
		})
	}
}

func TestValidateRequestReportsAllFields(t *testing.T) {
	err := ValidateRequest(&IngestRequest{}, testIngestConfig())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Fields) != 2 {
		t.Errorf("expected errors for title and body, got %v", validationErr.Fields)
	}
}
