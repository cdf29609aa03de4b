// Package app wires together all dependencies and runs the scouting backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakrobotics/scoutbase/internal/auth"
	"github.com/oakrobotics/scoutbase/internal/avatar"
	"github.com/oakrobotics/scoutbase/internal/config"
	"github.com/oakrobotics/scoutbase/internal/event"
	handler "github.com/oakrobotics/scoutbase/internal/handler/http"
	"github.com/oakrobotics/scoutbase/internal/ranking"
	"github.com/oakrobotics/scoutbase/internal/repository/postgres"
	"github.com/oakrobotics/scoutbase/internal/service"
	"github.com/oakrobotics/scoutbase/internal/sweeper"
	"github.com/oakrobotics/scoutbase/migrations"
	"github.com/oakrobotics/scoutbase/pkg/database"
	"github.com/oakrobotics/scoutbase/pkg/health"
	"github.com/oakrobotics/scoutbase/pkg/httpclient"
	pkgkafka "github.com/oakrobotics/scoutbase/pkg/kafka"
	"github.com/oakrobotics/scoutbase/pkg/tracing"
)

// App holds the long-lived components of the running service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	sweeper        *sweeper.Sweeper
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates the application, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "scoutbase",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingOTLP,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "scoutbase")

	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Optional ranking cache.
	var rankingCache service.RankingCache
	if cfg.RedisEnabled() {
		redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		rankingCache = ranking.NewRedisCache(redisClient)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("ranking cache enabled", slog.String("addr", cfg.Redis().Addr()))
	}

	// Optional domain events.
	var producer *pkgkafka.Producer
	var userEvents service.UserEventPublisher
	var reportEvents service.ReportEventPublisher
	if cfg.KafkaEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer := event.NewProducer(producer, logger)
		userEvents = eventProducer
		reportEvents = eventProducer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	avatars, err := avatar.NewStore(cfg.AvatarDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init avatar store: %w", err)
	}

	rankingHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("openai"),
		logger,
	)
	rankingClient := ranking.NewClient(rankingHTTP, ranking.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
	}, logger)

	// Dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 30*time.Minute)
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewRefreshTokenRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)

	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager, userEvents, cfg.TeamPassword, logger)
	userService := service.NewUserService(userRepo, tokenRepo, avatars, userEvents, logger)
	reportService := service.NewReportService(reportRepo, reportEvents, logger)
	rankingService := service.NewRankingService(reportRepo, rankingClient, rankingCache, logger)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:     authService,
		Users:    userService,
		Reports:  reportService,
		Rankings: rankingService,
		JWT:      jwtManager,
		Health:   healthHandler,
		Logger:   logger,
		CORS: handler.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		sweeper:        sweeper.New(tokenRepo, logger),
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the token sweeper and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sweeper.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops components in order: the HTTP server drains in-flight
// requests, the tracer flushes their spans, then the producer and pool close.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
