// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Model, Corpus, Search, Postgres, Kafka, Redis, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Model     ModelConfig     `yaml:"model"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// AdminConfig holds the admin RPC listener settings.
type AdminConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ModelConfig controls how the vector space model is built: weighting
// schemes, scan parallelism, and how long rebuild triggers are coalesced
// before a rebuild actually runs.
type ModelConfig struct {
	// TFScheme is "raw" or "sublinear".
	TFScheme string `yaml:"tfScheme"`
	// IDFScheme is "plain", "plusone", or "smoothed".
	IDFScheme string `yaml:"idfScheme"`
	// BuildWorkers bounds the goroutines scanning documents during a
	// build; 0 means one per CPU.
	BuildWorkers    int           `yaml:"buildWorkers"`
	RebuildDebounce time.Duration `yaml:"rebuildDebounce"`
}

// CorpusConfig selects and configures the document source the model is
// built from.
type CorpusConfig struct {
	// Source is "directory" or "postgres".
	Source string `yaml:"source"`
	// Dir is the document root for the directory source.
	Dir string `yaml:"dir"`
	// Watch enables filesystem watching for the directory source;
	// changes trigger a debounced rebuild.
	Watch bool `yaml:"watch"`
	// Extensions limits the directory source to the given file
	// extensions. Empty means .txt, .md, and .html.
	Extensions []string `yaml:"extensions"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	DefaultLimit         int           `yaml:"defaultLimit"`
	MaxLimit             int           `yaml:"maxLimit"`
	QueryTimeout         time.Duration `yaml:"queryTimeout"`
	MaxConcurrentQueries int           `yaml:"maxConcurrentQueries"`
	MaxQueryBytes        int           `yaml:"maxQueryBytes"`
}

// IngestConfig controls the document intake endpoint.
type IngestConfig struct {
	Enabled      bool  `yaml:"enabled"`
	MaxTitleLen  int   `yaml:"maxTitleLen"`
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerMinute float64 `yaml:"requestsPerMinute"`
	Burst             float64 `yaml:"burst"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest string `yaml:"documentIngest"`
	ModelBuilds    string `yaml:"modelBuilds"`
	SearchEvents   string `yaml:"searchEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls request tracing (sample rate, endpoint).
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Model.TFScheme {
	case "raw", "sublinear":
	default:
		return fmt.Errorf("config: unknown tf scheme %q", c.Model.TFScheme)
	}
	switch c.Model.IDFScheme {
	case "plain", "plusone", "smoothed":
	default:
		return fmt.Errorf("config: unknown idf scheme %q", c.Model.IDFScheme)
	}
	switch c.Corpus.Source {
	case "directory", "postgres":
	default:
		return fmt.Errorf("config: unknown corpus source %q", c.Corpus.Source)
	}
	if c.Corpus.Source == "directory" && c.Corpus.Dir == "" {
		return fmt.Errorf("config: directory corpus requires corpus.dir")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("config: defaultLimit %d exceeds maxLimit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Admin: AdminConfig{
			Enabled: true,
			Port:    7070,
		},
		Model: ModelConfig{
			TFScheme:        "raw",
			IDFScheme:       "plain",
			BuildWorkers:    0,
			RebuildDebounce: 2 * time.Second,
		},
		Corpus: CorpusConfig{
			Source: "directory",
			Dir:    "./corpus",
			Watch:  true,
		},
		Search: SearchConfig{
			DefaultLimit:         10,
			MaxLimit:             100,
			QueryTimeout:         5 * time.Second,
			MaxConcurrentQueries: 64,
			MaxQueryBytes:        8 * 1024,
		},
		Ingest: IngestConfig{
			Enabled:      true,
			MaxTitleLen:  512,
			MaxBodyBytes: 1 << 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 600,
			Burst:             60,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vectorrank",
			User:            "vectorrank",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vectorrank-group",
			Topics: KafkaTopics{
				DocumentIngest: "document-ingest",
				ModelBuilds:    "model-builds",
				SearchEvents:   "search-events",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads VR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VR_ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = port
		}
	}
	if v := os.Getenv("VR_MODEL_TF_SCHEME"); v != "" {
		cfg.Model.TFScheme = v
	}
	if v := os.Getenv("VR_MODEL_IDF_SCHEME"); v != "" {
		cfg.Model.IDFScheme = v
	}
	if v := os.Getenv("VR_MODEL_BUILD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.BuildWorkers = n
		}
	}
	if v := os.Getenv("VR_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("VR_CORPUS_DIR"); v != "" {
		cfg.Corpus.Dir = v
	}
	if v := os.Getenv("VR_CORPUS_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Corpus.Watch = b
		}
	}
	if v := os.Getenv("VR_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("VR_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("VR_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("VR_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("VR_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VR_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("VR_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("VR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VR_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("VR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
