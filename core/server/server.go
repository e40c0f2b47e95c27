package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-schedule-api/core/cache"
	"go-schedule-api/core/config"
	"go-schedule-api/core/constants"
	"go-schedule-api/core/controller"
	"go-schedule-api/core/database"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/middleware"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/core/tracing"
	"go-schedule-api/core/validator"
	"go-schedule-api/modules/calendar"
	"go-schedule-api/modules/media"
	"go-schedule-api/modules/schedule"
	"go-schedule-api/modules/schedule/repository"
	"go-schedule-api/modules/schedule/service"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

// Run loads configuration, wires every module and serves until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Server:TracingShutdown", "error", err)
		}
	}()

	repo, closeRepo, err := newRepository(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeRepo()

	eventCache := newCache(cfg.Redis)
	blobs := newBlobStore(cfg.Storage)

	registry := queue.NewRegistry()
	publisher, worker, closeQueue := newQueue(cfg, registry)
	defer closeQueue()

	e := newEcho(cfg.Server)
	mw := middleware.NewMiddleware()

	scheduleSvc := schedule.Init(e, mw, schedule.Deps{
		Repo:      repo,
		Cache:     eventCache,
		Blobs:     blobs,
		Publisher: publisher,
		Options:   []service.Option{service.WithCacheTTL(cfg.Cache.EventTTL)},
	})
	media.Init(e, mw, blobs, registry)
	calendar.Init(e, mw, scheduleSvc, registry, cfg.GoogleAPI)

	g, gctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("HTTP server shutting down")
		return e.Shutdown(shutdownCtx)
	})

	if worker != nil {
		g.Go(func() error { return worker.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server:Run", "error", err)
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func newRepository(ctx context.Context, cfg config.DatabaseConfig) (repository.Repository, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Migrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn("Server:CloseDatabase", "error", err)
		}
	}
	return repository.NewScheduleRepository(db), closeDB, nil
}

func newCache(cfg config.RedisConfig) cache.Cache {
	if cfg.Addr == "" {
		return cache.NewNoopCache()
	}
	c, err := cache.NewRedisCache(cfg)
	if err != nil {
		// reads fall back to the database
		logger.Warn("Server:NewRedisCache", "error", err, "addr", cfg.Addr)
		return cache.NewNoopCache()
	}
	return c
}

func newBlobStore(cfg config.StorageConfig) storage.BlobStore {
	if cfg.Bucket == "" {
		logger.Info("File storage disabled", "reason", "no bucket configured")
		return nil
	}
	s3, err := storage.NewS3Store(cfg)
	if err != nil {
		logger.Warn("Server:NewS3Store", "error", err)
		return nil
	}
	return s3
}

// newQueue picks asynq when enabled and redis is configured, otherwise runs tasks in-process.
func newQueue(cfg *config.Config, registry *queue.Registry) (queue.Publisher, *queue.Worker, func()) {
	if !cfg.Queue.Enabled || cfg.Redis.Addr == "" {
		inline := queue.NewInlinePublisher(registry)
		logger.Info("Background tasks run inline")
		return inline, nil, inline.Wait
	}

	publisher := queue.NewAsynqPublisher(cfg.Redis, cfg.Queue)
	closePublisher := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Server:CloseQueue", "error", err)
		}
	}
	var worker *queue.Worker
	if cfg.Queue.WorkerEnabled {
		worker = queue.NewWorker(cfg.Redis, cfg.Queue, registry)
	}
	return publisher, worker, closePublisher
}

func newEcho(cfg config.ServerConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = controller.HTTPErrorHandler
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	mw := middleware.NewMiddleware()
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			constants.HeaderOwnerToken, constants.HeaderCalendar,
		},
	}))
	e.Use(mw.RequestLogger())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return e
}
