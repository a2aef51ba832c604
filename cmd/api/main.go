package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docarchive/docs"
	"docarchive/internal/auth"
	"docarchive/internal/config"
	"docarchive/internal/database"
	"docarchive/internal/database/migration"
	handlers "docarchive/internal/http/handler"
	"docarchive/internal/http/middleware"
	"docarchive/internal/logging"
	apptrace "docarchive/internal/otel"
	"docarchive/internal/repository/postgres"
	"docarchive/internal/retention"
	"docarchive/internal/service"
	"docarchive/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Document Archive API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location()).With("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server_failed", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) error {
	shutdownTracing, err := apptrace.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn(sctx, "tracing_shutdown_failed", err, nil)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	tokens, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	categoryRepo := postgres.NewCategoryPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)
	shareRepo := postgres.NewShareLinkPostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	profileRepo := postgres.NewProfilePostgres(db)

	svc := handlers.Services{
		Documents:  service.NewDocumentService(objStore, docRepo, categoryRepo, shareRepo, log, cfg.Upload.MaxBytes),
		Categories: service.NewCategoryService(categoryRepo),
		Audit:      service.NewAuditService(auditRepo),
		Accounts:   service.NewAccountService(userRepo, profileRepo, docRepo, objStore, tokens, log, cfg.Upload.AvatarURLTTL),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart framing on top of the largest accepted file.
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(cfg.Location()))
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, db, svc, handlers.SessionCookie{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
		TTL:    cfg.Auth.TokenTTL,
	})

	if cfg.Retention.Enabled {
		job, err := retention.NewJob(auditRepo, docRepo, cfg.Retention.AuditRetention, log, reg)
		if err != nil {
			return fmt.Errorf("init retention: %w", err)
		}
		go job.Run(ctx, cfg.Retention.Interval)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server_started", map[string]any{"addr": addr})
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(sctx, "server_stopped", nil)
	return nil
}
