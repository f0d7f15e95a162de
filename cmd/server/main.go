// Package main is the entry point for the ledger API server.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymledger/internal/clock"
	"gymledger/internal/config"
	"gymledger/internal/logger"
	"gymledger/internal/metrics"
	"gymledger/internal/rabbitmq"
	"gymledger/internal/repositories"
	"gymledger/internal/routes"
	"gymledger/internal/scheduler"
	"gymledger/internal/services/ledger"
	"gymledger/internal/services/notification"
	"gymledger/internal/services/report"
	"gymledger/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	rate, err := cfg.Commission()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(cfg, zl); err != nil {
		return err
	}
	defer repositories.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheusCollector(reg)
	clk := clock.System()

	var publisher notification.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, zl)
		if err != nil {
			zl.Warn("rabbitmq unavailable, notifications stay queued", zap.Error(err))
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	var (
		ledgerCache     ledger.ReportCache
		withdrawalCache withdrawal.ReportCache
		reportCache     report.Cache
		cachePinger     interface {
			HealthCheck(context.Context) error
		}
	)
	if repositories.CacheService != nil {
		ledgerCache = repositories.CacheService
		withdrawalCache = repositories.CacheService
		reportCache = repositories.CacheService
		cachePinger = repositories.CacheService
	}

	ledgerRepo := repositories.NewLedgerRepository(repositories.DB)
	sink := notification.NewService(repositories.NewAuditRepository(repositories.DB), publisher, cfg.NotificationExchange, clk, zl)

	ledgerSvc := ledger.NewService(ledgerRepo, ledger.FixedCommission(rate), sink, ledger.Options{
		Clock:   clk,
		Metrics: collector,
		Cache:   ledgerCache,
		Logger:  zl,
	})
	withdrawalSvc := withdrawal.NewService(ledgerRepo, sink, withdrawal.Options{
		Clock:   clk,
		Metrics: collector,
		Cache:   withdrawalCache,
		Logger:  zl,
	})
	reportSvc := report.NewService(repositories.NewReportRepository(repositories.DB), report.Options{
		Location: loc,
		Clock:    clk,
		Metrics:  collector,
		Cache:    reportCache,
		Logger:   zl,
	})

	var outbox scheduler.OutboxFlusher
	if publisher != nil {
		outbox = sink
	}
	jobs := scheduler.New(ledgerSvc, outbox, scheduler.Config{ReconcileSchedule: cfg.ReconcileSchedule}, zl)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer func() { <-jobs.Stop().Done() }()

	app := fiber.New(fiber.Config{
		AppName:               "gymledger",
		DisableStartupMessage: cfg.IsProduction(),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		DB:          repositories.DB,
		Cache:       cachePinger,
		Ledger:      ledgerSvc,
		Withdrawals: withdrawalSvc,
		Reports:     reportSvc,
		Location:    loc,
		JWTSecret:   cfg.JWTSecret,
		Gatherer:    reg,
		Logger:      zl,
	})

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("port", cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}
