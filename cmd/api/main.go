package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/broker-roster/internal/adapters/primary/http"
	mw "github.com/lorrc/broker-roster/internal/adapters/primary/http/middleware"
	"github.com/lorrc/broker-roster/internal/adapters/primary/websocket"
	"github.com/lorrc/broker-roster/internal/adapters/secondary/memory"
	"github.com/lorrc/broker-roster/internal/adapters/secondary/postgres"
	"github.com/lorrc/broker-roster/internal/config"
	"github.com/lorrc/broker-roster/internal/core/ports"
	"github.com/lorrc/broker-roster/internal/core/services"
	"github.com/lorrc/broker-roster/internal/infrastructure/logging"
	"github.com/lorrc/broker-roster/internal/infrastructure/metrics"
)

// brokerStore is a broker repository that can report its health
type brokerStore interface {
	ports.BrokerRepository
	httpAdapter.HealthChecker
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	// 3. Initialize Metrics
	var (
		registry    = metrics.NewRegistry()
		wsMetrics   *metrics.WebSocketMetrics
		httpMetrics *metrics.HTTPMetrics
		dbMetrics   *metrics.DBMetrics
	)
	if cfg.Metrics.Enabled {
		wsMetrics = metrics.NewWebSocketMetrics(registry)
		httpMetrics = metrics.NewHTTPMetrics(registry)
		dbMetrics = metrics.NewDBMetrics(registry)
	}

	// 4. Initialize the Broker Store
	ctx := context.Background()

	var (
		store     brokerStore
		txManager ports.TransactionManager
		pool      *pgxpool.Pool
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store, data will not survive a restart")
		store = memory.NewBrokerRepository()
		txManager = memory.NewTransactionManager()
	default:
		pool, err = openPool(ctx, cfg, dbMetrics)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("database connection established")

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
			logger.Info("database migrations applied")
		}

		store = postgres.NewBrokerRepository(pool)
		txManager = postgres.NewTransactionManager(pool)
	}

	// 5. Initialize Real-time Components
	hub := websocket.NewHub(logger, wsMetrics)

	// 6. Initialize Rate Limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	// 7. Dependency Injection (Wiring the Hexagon)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	brokerService := services.NewBrokerService(store, txManager, hub)

	deps := httpAdapter.RouterDeps{
		Config:      cfg,
		Logger:      logger,
		Brokers:     httpAdapter.NewBrokerHandler(brokerService, errorHandler, logger),
		Health:      httpAdapter.NewHealthHandler(store, hub, cfg.App.Version),
		WebSocket:   httpAdapter.NewWebSocketHandler(hub, cfg, logger),
		RateLimiter: rateLimiter,
		HTTPMetrics: httpMetrics,
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = metrics.Handler(registry)
	}

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      httpAdapter.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by the server
	hub.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server shutdown complete")
}

// openPool creates and verifies a pgx pool from the database settings
func openPool(ctx context.Context, cfg *config.Config, dbMetrics *metrics.DBMetrics) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	poolConfig.ConnConfig.Tracer = postgres.NewMetricsTracer(dbMetrics)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
