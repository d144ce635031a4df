package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quotedesk/quotedesk/internal/app"
	jobmetrics "github.com/quotedesk/quotedesk/internal/jobs"
	"github.com/quotedesk/quotedesk/internal/mailer"
	"github.com/quotedesk/quotedesk/internal/platform/cache"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/jobs"
)

const settingsCacheNS = "quotedesk:settings"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	settingsService := settings.NewService(
		settings.NewRepository(pool),
		cache.NewJSONCache(redisClient, settingsCacheNS, cfg.SettingsCacheTTL),
		logger,
	)

	templates, err := mailer.LoadTemplates()
	if err != nil {
		logger.Error("parse mail templates", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := jobs.NewAdminNotifier(
		settingsService,
		templates,
		mailer.NewSender(logger, cfg.SMTPTimeout),
		logger,
		jobmetrics.NewMetrics(nil),
	)

	redisOpts, err := jobs.RedisOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("parse redis address", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    []jobs.TaskHandler{notifier.TaskHandler()},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer metricsServer.Close()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
