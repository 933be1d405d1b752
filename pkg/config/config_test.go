package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Model.TFScheme != "raw" {
		t.Errorf("expected default tf scheme raw, got %q", cfg.Model.TFScheme)
	}
	if cfg.Model.IDFScheme != "plain" {
		t.Errorf("expected default idf scheme plain, got %q", cfg.Model.IDFScheme)
	}
	if cfg.Corpus.Source != "directory" {
		t.Errorf("expected default corpus source directory, got %q", cfg.Corpus.Source)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("expected default limits 10/100, got %d/%d",
			cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Redis.CacheTTL != 60*time.Second {
		t.Errorf("expected default cache TTL 60s, got %v", cfg.Redis.CacheTTL)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9999
model:
  tfScheme: sublinear
corpus:
  source: directory
  dir: /data/docs
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999 from file, got %d", cfg.Server.Port)
	}
	if cfg.Model.TFScheme != "sublinear" {
		t.Errorf("expected tf scheme sublinear from file, got %q", cfg.Model.TFScheme)
	}
	if cfg.Corpus.Dir != "/data/docs" {
		t.Errorf("expected corpus dir /data/docs from file, got %q", cfg.Corpus.Dir)
	}
	// Fields the file does not mention keep their defaults.
	if cfg.Model.IDFScheme != "plain" {
		t.Errorf("expected untouched idf scheme plain, got %q", cfg.Model.IDFScheme)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("expected untouched default limit 10, got %d", cfg.Search.DefaultLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VR_SERVER_PORT", "7777")
	t.Setenv("VR_MODEL_TF_SCHEME", "sublinear")
	t.Setenv("VR_CORPUS_DIR", "/env/corpus")
	t.Setenv("VR_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("VR_REDIS_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("expected env port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Model.TFScheme != "sublinear" {
		t.Errorf("expected env tf scheme sublinear, got %q", cfg.Model.TFScheme)
	}
	if cfg.Corpus.Dir != "/env/corpus" {
		t.Errorf("expected env corpus dir, got %q", cfg.Corpus.Dir)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Errorf("expected env brokers [k1:9092 k2:9092], got %v", cfg.Kafka.Brokers)
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis enabled via env")
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("VR_SERVER_PORT", "7777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected env to override file, got port %d", cfg.Server.Port)
	}
}

func TestEnvOverrideIgnoresBadValues(t *testing.T) {
	t.Setenv("VR_SERVER_PORT", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected unparseable env port to keep default 8080, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown tf scheme",
			mutate:  func(c *Config) { c.Model.TFScheme = "log-log" },
			wantErr: "tf scheme",
		},
		{
			name:    "unknown idf scheme",
			mutate:  func(c *Config) { c.Model.IDFScheme = "bm25" },
			wantErr: "idf scheme",
		},
		{
			name:    "unknown corpus source",
			mutate:  func(c *Config) { c.Corpus.Source = "s3" },
			wantErr: "corpus source",
		},
		{
			name: "directory source without dir",
			mutate: func(c *Config) {
				c.Corpus.Source = "directory"
				c.Corpus.Dir = ""
			},
			wantErr: "corpus.dir",
		},
		{
			name: "default limit above max",
			mutate: func(c *Config) {
				c.Search.DefaultLimit = 500
				c.Search.MaxLimit = 100
			},
			wantErr: "exceeds maxLimit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "docs",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}
	dsn := p.DSN()
	for _, want := range []string{"host=db.internal", "port=5433", "dbname=docs", "sslmode=require"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN missing %q: %s", want, dsn)
		}
	}
}
