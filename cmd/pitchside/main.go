// Package main provides the entry point for the Pitchside ingestion and
// settlement pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/admin"
	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/database"
	"github.com/yourusername/pitchside/internal/feed"
	"github.com/yourusername/pitchside/internal/health"
	"github.com/yourusername/pitchside/internal/ingest"
	"github.com/yourusername/pitchside/internal/logger"
	"github.com/yourusername/pitchside/internal/merge"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/notify"
	"github.com/yourusername/pitchside/internal/ratelimit"
	"github.com/yourusername/pitchside/internal/repository"
	"github.com/yourusername/pitchside/internal/scheduler"
	"github.com/yourusername/pitchside/internal/settle"
	"github.com/yourusername/pitchside/internal/sweep"
)

var version = "dev"

func main() {
	configPath := os.Getenv("PITCHSIDE_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.NewLogger(cfg.App.LogLevel)
	auditLogger := logger.NewAuditLogger(appLogger)
	appLogger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"provider":    cfg.Feed.Provider,
		"version":     version,
	}).Info("Starting Pitchside pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize repositories")
	}
	if err := repos.Category.EnsureDefaults(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to seed market categories")
	}

	// Shared request budget: Redis when configured, in-process otherwise
	var counterStore ratelimit.CounterStore
	var redisStore *ratelimit.RedisStore
	if cfg.RateLimit.RedisAddr != "" {
		redisStore = ratelimit.NewRedisStore(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword)
		defer redisStore.Close()
		counterStore = redisStore
		appLogger.WithField("addr", cfg.RateLimit.RedisAddr).Info("Using Redis-backed rate budget")
	} else {
		counterStore = ratelimit.NewMemoryStore()
		appLogger.Warn("No Redis configured, rate budget is per-process only")
	}
	governor := ratelimit.NewGovernor(counterStore, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window(), appLogger)

	// Smooth this process's share of the window budget over time
	smoothingRPS := float64(cfg.RateLimit.RequestsPerWindow) / cfg.RateLimit.Window().Seconds()
	client := feed.NewAPIClient(cfg.Feed, governor, smoothingRPS, appLogger)

	merger := merge.NewMerger(repos, appLogger)
	orchestrator := ingest.NewOrchestrator(client, merger, repos, cfg.Ingestion, appLogger)
	engine := settle.NewEngine(repos, appLogger, auditLogger, notify.NewLogNotifier(appLogger))
	scoreSync := settle.NewScoreSync(client, repos, engine, appLogger)
	reconciler := sweep.NewReconciler(repos, engine, cfg.Settlement, appLogger)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go serveMetrics(cfg.Metrics, appLogger)
	}

	healthChecks := map[string]health.Pinger{"database": db}
	if redisStore != nil {
		healthChecks["redis"] = redisStore
	}
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		Logger:      appLogger,
		Checks:      healthChecks,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to start health server")
	}

	if cfg.Admin.Enabled {
		adminServer := admin.NewServer(cfg.Admin.Port, repos, orchestrator, engine, reconciler, governor, appLogger, auditLogger)
		if err := adminServer.Start(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to start admin server")
		}
	}

	sched := scheduler.NewScheduler(appLogger)
	scoreSyncInterval := time.Duration(cfg.Ingestion.ScoreSyncIntervalSeconds) * time.Second
	sweepInterval := time.Duration(cfg.Settlement.SweepIntervalMinutes) * time.Minute

	if err := sched.ScheduleCron("ingestion", cfg.Ingestion.RunSchedule, time.Hour, orchestrator.Run); err != nil {
		appLogger.WithError(err).Fatal("Failed to schedule ingestion runs")
	}
	if err := sched.ScheduleEvery("score-sync", scoreSyncInterval, scoreSync.Run); err != nil {
		appLogger.WithError(err).Fatal("Failed to schedule score sync")
	}
	if err := sched.ScheduleEvery("sweep", sweepInterval, reconciler.Run); err != nil {
		appLogger.WithError(err).Fatal("Failed to schedule reconciliation sweep")
	}

	if err := sched.Start(); err != nil {
		appLogger.WithError(err).Fatal("Failed to start scheduler")
	}
	healthServer.SetReady(true)

	// Prime the pipeline rather than waiting for the first cron tick
	go func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Hour)
		defer cancel()
		if err := orchestrator.Run(runCtx); err != nil {
			appLogger.WithError(err).Error("Initial ingestion run failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")

	healthServer.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLogger.WithError(err).Error("Scheduler shutdown error")
	}
	appLogger.Info("Pitchside pipeline stopped")
}

func serveMetrics(cfg config.MetricsConfig, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithFields(logrus.Fields{
		"addr": addr,
		"path": cfg.Path,
	}).Info("Metrics server starting")

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("Metrics server error")
	}
}
