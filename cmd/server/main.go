package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/precatorio/internal/adapter/http"
	"github.com/iho/precatorio/internal/adapter/http/handler"
	"github.com/iho/precatorio/internal/adapter/http/middleware"
	fileRepo "github.com/iho/precatorio/internal/adapter/repository/file"
	postgresRepo "github.com/iho/precatorio/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/precatorio/internal/adapter/repository/redis"
	"github.com/iho/precatorio/internal/infrastructure/config"
	"github.com/iho/precatorio/internal/infrastructure/logger"
	"github.com/iho/precatorio/internal/infrastructure/metrics"
	"github.com/iho/precatorio/internal/infrastructure/postgres"
	"github.com/iho/precatorio/internal/infrastructure/redis"
	"github.com/iho/precatorio/internal/infrastructure/refresher"
	"github.com/iho/precatorio/internal/usecase"
)

const (
	rateLimitCleanupInterval = 10 * time.Minute
	rateLimitMaxIdle         = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// run wires the service and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Reference data source
	var pool *pgxpool.Pool
	if cfg.UsesPostgres() {
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		var err error
		pool, err = postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")
	}

	repo, retrier, err := newIndexSource(cfg, pool, log)
	if err != nil {
		return err
	}

	// Redis is optional: without it there is no warm start and no idempotency.
	var (
		redisClient *goredis.Client
		cache       usecase.SnapshotCache
		idempotency usecase.IdempotencyStore
	)
	if cfg.CacheEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without snapshot cache and idempotency")
		} else {
			defer redisClient.Close()
			cache = redisRepo.NewSnapshotCache(redisClient)
			idempotency = redisRepo.NewIdempotencyStore(redisClient)
			log.Info().Msg("connected to redis")
		}
	}

	idGen := postgresRepo.NewULIDGenerator()

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{
		Repository:  repo,
		Cache:       cache,
		Retrier:     retrier,
		IDGenerator: idGen,
		Recorder:    m,
		CacheTTL:    cfg.SnapshotCacheTTL,
	})

	refresh := refresher.New(refresher.Config{
		Store:    store,
		Logger:   log,
		Interval: cfg.IndexRefreshInterval,
	})
	// The first load must not block startup; /ready reports until it succeeds.
	refresh.RefreshOnce(ctx)

	calcUC := usecase.NewCalculationUseCase(usecase.CalculationConfig{
		Snapshots:        store,
		IDGenerator:      idGen,
		Recorder:         m,
		MinimumWageTable: cfg.MinimumWageTable,
		BatchWorkers:     cfg.BatchWorkers,
		BatchMaxItems:    cfg.BatchMaxItems,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).
		WithHitCounter(m.RateLimitHits)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		IndexHandler:       handler.NewIndexHandler(store, calcUC),
		CalculationHandler: handler.NewCalculationHandler(calcUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient, store),
		Logger:             log,
		Metrics:            m,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IdempotencyStore:   idempotency,
		IdempotencyTTL:     cfg.IdempotencyTTL,
	})

	server := &http.Server{
		Addr:         serverAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("index_source", cfg.IndexSource).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.IndexRefreshInterval > 0 {
		g.Go(func() error {
			if err := refresh.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, rateLimitCleanupInterval, rateLimitMaxIdle)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newIndexSource selects the index repository for cfg.IndexSource. Only the
// postgres source gets a retrier.
func newIndexSource(cfg *config.Config, pool *pgxpool.Pool, log zerolog.Logger) (usecase.IndexRepository, usecase.Retrier, error) {
	switch cfg.IndexSource {
	case config.IndexSourcePostgres:
		if pool == nil {
			return nil, nil, errors.New("postgres index source requires a connection pool")
		}
		return postgresRepo.NewIndexRepository(pool), postgresRepo.NewRetrier(log), nil
	case config.IndexSourceYAML:
		return fileRepo.NewYAMLRepository(cfg.IndexFile), nil, nil
	case config.IndexSourceXLSX:
		return fileRepo.NewXLSXRepository(cfg.IndexFile), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown INDEX_SOURCE %q", config.ErrInvalidConfig, cfg.IndexSource)
	}
}

func serverAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}
