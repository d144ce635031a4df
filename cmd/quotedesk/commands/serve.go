package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/urfave/cli/v3"

	"github.com/quotedesk/quotedesk/internal/app"
	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/mailer"
	"github.com/quotedesk/quotedesk/internal/observability"
	"github.com/quotedesk/quotedesk/internal/platform/cache"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/quotepdf"
	"github.com/quotedesk/quotedesk/internal/quotes"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/internal/view"
	"github.com/quotedesk/quotedesk/jobs"
)

const (
	sessionCookie   = "qd_session"
	settingsCacheNS = "quotedesk:settings"
	shutdownTimeout = 10 * time.Second
)

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP server",
		Action: serve,
	}
}

func serve(ctx context.Context, _ *cli.Command) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	pages, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	mailTemplates, err := mailer.LoadTemplates()
	if err != nil {
		return fmt.Errorf("parse mail templates: %w", err)
	}

	metrics := observability.NewMetrics()

	settingsService := settings.NewService(
		settings.NewRepository(pool),
		cache.NewJSONCache(redisClient, settingsCacheNS, cfg.SettingsCacheTTL),
		logger,
	)

	authService := auth.NewService(auth.NewRepository(pool))

	redisOpts, err := jobs.RedisOpt(cfg.RedisAddr)
	if err != nil {
		return err
	}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	quoteService := quotes.NewService(quotes.Deps{
		Repo:          quotes.NewRepository(pool),
		Settings:      settingsService,
		Renderer:      quotepdf.NewRenderer(quotepdf.Options{Compress: true}),
		Templates:     mailTemplates,
		Mailer:        mailer.NewSender(logger, cfg.SMTPTimeout),
		Notifier:      jobClient,
		Locker:        shared.NewLocker(redisClient, cfg.QuoteLockTTL),
		Metrics:       metrics,
		Logger:        logger,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     auth.NewHandler(logger, authService, sessionManager, csrfManager),
		QuotesHandler:   quotes.NewHandler(logger, quoteService, pages, csrfManager),
		SettingsHandler: settings.NewHandler(logger, settingsService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	quoteService.Wait()
	return nil
}
