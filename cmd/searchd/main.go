// Command searchd serves ranked document search over HTTP.
//
// It loads a corpus from a directory or Postgres, builds the ranking
// model in memory, and answers queries on /api/v1/search. Optional
// subsystems (Redis query cache, Kafka event streams, document ingest,
// the admin RPC port) attach based on configuration; the server runs
// degraded without them rather than refusing to start.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/querylab/vectorrank/internal/events"
	"github.com/querylab/vectorrank/internal/ingest"
	"github.com/querylab/vectorrank/internal/search"
	"github.com/querylab/vectorrank/internal/search/cache"
	"github.com/querylab/vectorrank/internal/search/handler"
	"github.com/querylab/vectorrank/internal/source"
	"github.com/querylab/vectorrank/pkg/config"
	"github.com/querylab/vectorrank/pkg/health"
	"github.com/querylab/vectorrank/pkg/kafka"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/metrics"
	"github.com/querylab/vectorrank/pkg/middleware"
	"github.com/querylab/vectorrank/pkg/postgres"
	"github.com/querylab/vectorrank/pkg/proto"
	"github.com/querylab/vectorrank/pkg/ratelimit"
	"github.com/querylab/vectorrank/pkg/redis"
	"github.com/querylab/vectorrank/pkg/rpc"
	"github.com/querylab/vectorrank/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("searchd", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting searchd",
		"port", cfg.Server.Port,
		"source", cfg.Corpus.Source,
		"tf", cfg.Model.TFScheme,
		"idf", cfg.Model.IDFScheme)

	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		src      source.Source
		dirSrc   *source.Directory
		pgClient *postgres.Client
	)
	switch cfg.Corpus.Source {
	case "postgres":
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		src = source.NewPostgres(pgClient)
	default:
		dirSrc, err = source.NewDirectory(cfg.Corpus.Dir, cfg.Corpus.Extensions)
		if err != nil {
			slog.Error("failed to open corpus directory", "error", err, "dir", cfg.Corpus.Dir)
			os.Exit(1)
		}
		src = dirSrc
	}

	svc, err := search.New(src, cfg.Model, cfg.Search, m)
	if err != nil {
		slog.Error("invalid model configuration", "error", err)
		os.Exit(1)
	}

	// An empty or unreachable corpus at boot is not fatal: the server
	// answers 503 until a rebuild succeeds, and rebuilds arrive through
	// the watcher, ingest, and the admin port.
	if info, err := svc.Rebuild(ctx); err != nil {
		slog.Warn("initial model build failed, serving without a model", "error", err)
	} else {
		slog.Info("initial model ready",
			"documents", info.Documents,
			"vocabulary", info.VocabularyTerms,
			"duration", info.Duration)
	}

	rebuild := func() {
		if _, err := svc.Rebuild(ctx); err != nil {
			slog.Error("model rebuild failed", "error", err)
		}
	}
	trigger := ingest.NewTrigger(cfg.Model.RebuildDebounce, rebuild)
	defer trigger.Stop()

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, serving without query cache", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis, svc.CanonicalQuery, m)
			svc.OnSwap(func(ctx context.Context, _ search.BuildInfo) {
				if err := queryCache.Invalidate(ctx); err != nil {
					slog.Warn("cache invalidation after rebuild failed", "error", err)
				}
			})
		}
	}

	var collector *events.Collector
	if cfg.Kafka.Enabled {
		searchPub := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		buildsPub := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ModelBuilds)
		ingestPub := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
		defer searchPub.Close()
		defer buildsPub.Close()
		defer ingestPub.Close()

		collector = events.NewCollector(searchPub, buildsPub, ingestPub, 10000)
		collector.Start(ctx)
		defer collector.Close()

		svc.OnBuild(func(_ context.Context, info search.BuildInfo, buildErr error) {
			ev := proto.BuildEvent{
				Documents:       int64(info.Documents),
				VocabularyTerms: int64(info.VocabularyTerms),
				DurationMs:      info.Duration.Milliseconds(),
				Success:         buildErr == nil,
				OccurredAt:      time.Now().UTC().Unix(),
			}
			if buildErr != nil {
				ev.Error = buildErr.Error()
			}
			collector.TrackBuild(ev)
		})

		consumer := ingest.NewRebuildConsumer(cfg.Kafka, trigger)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("ingest consumer stopped", "error", err)
			}
		}()
	}

	checker := health.NewChecker()
	checker.Register("model", func(ctx context.Context) health.ComponentHealth {
		if !svc.Stats().Ready {
			return health.Down("no model built yet")
		}
		return health.Up()
	})
	if cfg.Redis.Enabled {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if queryCache == nil {
				return health.Degraded("not connected")
			}
			return health.Up()
		})
	}
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.Degraded(err.Error())
			}
			return health.Up()
		})
	}

	if dirSrc != nil && cfg.Corpus.Watch {
		go func() {
			if err := dirSrc.Watch(ctx, cfg.Model.RebuildDebounce, rebuild); err != nil {
				slog.Error("corpus watcher stopped", "error", err)
			}
		}()
	}

	var sampler *tracing.Sampler
	if cfg.Tracing.Enabled {
		sampler = tracing.NewSampler(cfg.Tracing.SampleRate)
	}

	searchHandler := handler.New(svc, queryCache, collector, sampler, m, cfg.Search)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", searchHandler.Search)
	mux.HandleFunc("GET /api/v1/model/stats", searchHandler.ModelStats)
	mux.HandleFunc("GET /api/v1/model/terms/{term}", searchHandler.Term)
	mux.HandleFunc("GET /api/v1/cache/stats", searchHandler.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", searchHandler.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	if cfg.Ingest.Enabled {
		if pgClient == nil {
			slog.Warn("ingest enabled but corpus source is not postgres, ingest disabled")
		} else {
			ingestHandler := ingest.NewHandler(ingest.NewStore(pgClient), collector, m, cfg.Ingest, trigger.Fire)
			mux.HandleFunc("POST /api/v1/documents", ingestHandler.Ingest)
		}
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		defer limiter.Close()
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	var adminSrv *rpc.Server
	if cfg.Admin.Enabled {
		adminSrv = rpc.NewServer()
		search.RegisterAdmin(adminSrv, svc)
		addr := fmt.Sprintf(":%d", cfg.Admin.Port)
		go func() {
			slog.Info("admin rpc listening", "addr", addr, "methods", adminSrv.MethodCount())
			if err := adminSrv.Serve(addr); err != nil {
				slog.Error("admin rpc server stopped", "error", err)
			}
		}()
	}

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down searchd")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}
		if adminSrv != nil {
			adminSrv.Stop()
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics shutdown failed", "error", err)
			}
		}
	}()

	slog.Info("http server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("searchd stopped")
}
