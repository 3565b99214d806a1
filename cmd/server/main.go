// Package main is the entry point of the Tumae matching engine server.
//
// The engine serves three concerns for the tutoring marketplace: the
// one-accept-per-question state machine, the monotonic reputation counters
// it feeds, and the read-side match and ranking queries. Layout follows
// Clean Architecture: domain, application (commands/queries), infrastructure
// (PostgreSQL, Redis, event bus), and the HTTP interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tumae-app/tumae-match-engine/config"
	"github.com/tumae-app/tumae-match-engine/internal/application/command"
	"github.com/tumae-app/tumae-match-engine/internal/application/query"
	"github.com/tumae-app/tumae-match-engine/internal/domain/community"
	"github.com/tumae-app/tumae-match-engine/internal/domain/matching"
	"github.com/tumae-app/tumae-match-engine/internal/domain/reputation"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/messaging"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/persistence/memory"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/persistence/postgres"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/persistence/redis"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/scheduler"
	httpserver "github.com/tumae-app/tumae-match-engine/internal/interface/http"
	"github.com/tumae-app/tumae-match-engine/internal/interface/http/handlers"
	"github.com/tumae-app/tumae-match-engine/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slogger := setupSlog(cfg)
	log.Info("starting Tumae matching engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		acceptanceStore community.AcceptanceStore
		counterStore    reputation.CounterStore
		directory       matching.ProfileDirectory
		dbConn          *postgres.Connection
	)

	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)

	if cfg.UseMemoryStore() {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store := memory.NewStore()
		acceptanceStore = store
		counterStore = store
		directory = store
	} else {
		log.Info("connecting to database")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		if cfg.Database.AutoMigrate {
			log.Info("running database migrations")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		acceptanceStore = postgres.NewCommunityRepository(dbConn)
		counterStore = postgres.NewReputationRepository(dbConn)
		directory = postgres.NewProfileRepository(dbConn)
		healthChecker.AddCheck("database", func(ctx context.Context) error {
			status, err := dbConn.Health(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %s", status.Error)
			}
			return nil
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS RANKING CACHE (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var rankingCache *redis.RankingCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, ranking cache disabled", logger.Err(err))
		} else {
			defer cache.Close()
			rankingCache = redis.NewRankingCache(cache)
			healthChecker.AddCheck("redis", handlers.NewPingCheck(cache))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.AsyncMode = cfg.Events.AsyncMode
	busConfig.WorkerPoolSize = cfg.Events.WorkerPoolSize
	busConfig.Logger = slogger
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	if rankingCache != nil {
		if err := messaging.SubscribeRankingUpdates(eventBus, rankingCache, slogger); err != nil {
			return fmt.Errorf("failed to subscribe ranking updates: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	acceptAnswer := command.NewAcceptAnswerHandler(acceptanceStore, eventBus, log)
	computeMatches := query.NewComputeMatchesHandler(directory, log)

	var cacheForQueries query.RankingCache
	if rankingCache != nil {
		cacheForQueries = rankingCache
	}
	getRanking := query.NewGetRankingHandler(counterStore, cacheForQueries, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. BACKGROUND JOBS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled && rankingCache != nil {
		sched := scheduler.NewScheduler(slogger)

		rebuildJob := scheduler.NewRebuildRankingJob(counterStore, rankingCache, eventBus)
		if err := sched.Register(rebuildJob, cfg.Scheduler.RebuildRankingInterval); err != nil {
			return fmt.Errorf("failed to register ranking rebuild job: %w", err)
		}

		// Warm the cache before serving traffic; a failure here is not
		// fatal, the interval run retries.
		if err := sched.RunNow(ctx, rebuildJob.Name()); err != nil {
			log.Warn("initial ranking rebuild failed", logger.Err(err))
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.RequestTimeout = cfg.HTTP.RequestTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeys = cfg.HTTP.APIKeys
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled

	httpDeps := httpserver.Dependencies{
		AcceptAnswerHandler:   acceptAnswer,
		ComputeMatchesHandler: computeMatches,
		GetRankingHandler:     getRanking,
		Counters:              counterStore,
		Logger:                log,
		HealthChecker:         healthChecker,
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Tumae matching engine is running", logger.String("http_address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Event bus, Redis, and the database close via defers.
	log.Info("shutdown completed")
	return nil
}

// setupLogger configures the engine's structured logger.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// setupSlog configures the stdlib logger used by the event bus.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
