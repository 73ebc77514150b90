package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"trackapi/docs"
	"trackapi/internal/config"
	"trackapi/internal/database"
	handlers "trackapi/internal/http/handler"
	"trackapi/internal/http/middleware"
	"trackapi/internal/logging"
	"trackapi/internal/otel"
	"trackapi/internal/repository/postgres"
	"trackapi/internal/service"
	"trackapi/internal/storage"
)

const (
	captureQueueSize = 1024
	captureWorkers   = 4
)

func runServe(ctx context.Context, portFlag string) error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if portFlag != "" {
		cfg.Port = portFlag
	}

	logger := logging.New(cfg.Log, cfg.Location())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Error().Err(err).Msg("tracing_init_failed")
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error().Err(err).Msg("tracing_shutdown_failed")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	opts := handlers.Options{Gatherer: reg}
	if cfg.CaptureEnabled {
		db, captures, err := openCapture(ctx, cfg, logger)
		if err != nil {
			logger.Error().Err(err).Msg("capture_init_failed")
			return err
		}
		defer db.Close()

		queue := middleware.NewCaptureQueue(captures, logger, captureQueueSize, captureWorkers)
		// Runs after app.Listener returns, once no handler can enqueue.
		defer queue.Close()

		opts.DB = db
		opts.Captures = captures
		opts.CaptureQueue = queue
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(logger))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, opts)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host", cfg.AppHost)
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Bind before serving so a busy port fails the command immediately.
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Error().Err(err).Str("port", cfg.Port).Msg("listen_failed")
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting_down")
		if err := app.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("shutdown_failed")
		}
	}()

	logger.Info().
		Str("addr", ln.Addr().String()).
		Bool("capture_enabled", cfg.CaptureEnabled).
		Msg("listening")

	if err := app.Listener(ln); err != nil {
		logger.Error().Err(err).Msg("server_failed")
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// openCapture connects the capture backends: the PostgreSQL ledger and the
// S3-compatible payload archive.
func openCapture(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*sql.DB, service.CaptureService, error) {
	db, err := database.OpenLedger(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open capture ledger: %w", err)
	}

	archive, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize payload archive: %w", err)
	}

	repo := postgres.NewCapturePostgres(db)
	return db, service.NewCaptureService(archive, repo), nil
}
