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
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/untibullet/review-reputation/internal/config"
	"github.com/untibullet/review-reputation/internal/events"
	"github.com/untibullet/review-reputation/internal/handlers"
	"github.com/untibullet/review-reputation/internal/matching"
	"github.com/untibullet/review-reputation/internal/repository"
	"github.com/untibullet/review-reputation/internal/reputation"
	"github.com/untibullet/review-reputation/internal/review"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(shutdown(logger, run(cfg, logger)))
}

// shutdown логирует ошибку запуска, сбрасывает буфер логгера и возвращает код выхода.
// os.Exit не выполняет defer, поэтому Sync вызывается здесь явно.
func shutdown(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("service stopped with error", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

// run собирает зависимости и блокируется до сигнала завершения
func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting review reputation service",
		zap.String("server_address", cfg.Server.GetAddress()),
		zap.Bool("queue_enabled", cfg.Queue.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := initDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	repo := repository.New(dbPool)
	if cfg.Database.Migrate {
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	reputationService := reputation.NewService(repo, logger.Named("reputation"))
	matchingService := matching.NewService(repo, cfg.Matching.DefaultLimit, logger.Named("matching"))

	dispatcher, closeDispatcher, err := initDispatcher(ctx, cfg.Queue, reputationService.Handle, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	reviewService := review.NewService(repo, dispatcher, logger.Named("review"))

	handler := handlers.New(reputationService, matchingService, reviewService, handlers.Limits{
		Suggest:     cfg.Matching.DefaultLimit,
		Leaderboard: cfg.Leaderboard.Limit,
	}, logger)

	e := newServer(handler, dbPool, logger)

	serverErr := make(chan error, 1)
	go func() {
		addr := cfg.Server.GetAddress()
		logger.Info("server listening", zap.String("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server gracefully")
	case err := <-serverErr:
		return fmt.Errorf("server start failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

// initDispatcher выбирает доставку событий репутации. Без очереди события применяются
// в том же процессе, с очередью запускается потребитель.
func initDispatcher(ctx context.Context, cfg config.QueueConfig, handle events.Handler, logger *zap.Logger) (events.Dispatcher, func(), error) {
	if !cfg.Enabled {
		return events.NewDirect(handle), func() {}, nil
	}

	rmq, err := events.NewRabbitMQ(cfg.URL, cfg.Name, logger.Named("queue"))
	if err != nil {
		return nil, nil, err
	}

	go func() {
		if err := rmq.Consume(ctx, handle); err != nil {
			logger.Error("reputation consumer stopped", zap.Error(err))
		}
	}()

	closeFn := func() {
		if err := rmq.Close(); err != nil {
			logger.Warn("failed to close queue connection", zap.Error(err))
		}
	}
	return rmq, closeFn, nil
}

// newServer настраивает echo: валидатор, middleware, маршруты API и health check
func newServer(handler *handlers.Handler, pool *pgxpool.Pool, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Error("request error", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler.RegisterRoutes(e)

	// Health check проверяет и соединение с базой
	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// initLogger инициализирует zap логгер на основе конфигурации
func initLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// initDatabase инициализирует пул подключений к PostgreSQL
func initDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = min(cfg.MinConns, poolConfig.MaxConns)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns))

	return pool, nil
}
