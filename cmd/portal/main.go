package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-campus/meridian-campus/internal/app"
	"github.com/meridian-campus/meridian-campus/internal/auth"
	"github.com/meridian-campus/meridian-campus/internal/dashboard"
	"github.com/meridian-campus/meridian-campus/internal/genqueue"
	"github.com/meridian-campus/meridian-campus/internal/observability"
	"github.com/meridian-campus/meridian-campus/internal/perspective"
	"github.com/meridian-campus/meridian-campus/internal/platform/cache"
	"github.com/meridian-campus/meridian-campus/internal/platform/db"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
	"github.com/meridian-campus/meridian-campus/internal/users"
	"github.com/meridian-campus/meridian-campus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "campus_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	rbacMiddleware := rbac.Middleware{Logger: logger}
	rbacHandler := rbac.NewHandler(logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	authHandler.LoginThrottle = app.LoginRateLimit()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	perspectiveService := perspective.NewService(usersService, auditLogger)
	perspectiveHandler := perspective.NewHandler(logger, perspectiveService)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo, auditLogger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, perspectiveService, rbacMiddleware)

	metrics := observability.NewMetrics()

	taskClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init task client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Warn("task client close", slog.Any("error", err))
		}
	}()

	queueStore := genqueue.NewRepository(dbpool)
	queueNotifier := genqueue.NewNotifier(queueStore, taskClient, logger)
	queueLocker := genqueue.NewRedisLocker(redisClient, "default", cfg.GenLockTTL)
	queueExecutor := genqueue.NewHTTPExecutor(cfg.GenAPIURL, cfg.GenAPITimeout)
	queueMetrics := genqueue.NewMetrics(metrics.Registerer())
	queueProcessor := genqueue.NewProcessor(queueStore, queueExecutor, queueNotifier, queueLocker, logger, queueMetrics, cfg.GenTickInterval)
	queueService := genqueue.NewService(queueStore, auditLogger, cfg.GenItemSeconds)
	queueHandler := genqueue.NewHandler(logger, queueService, queueProcessor, rbacMiddleware)
	defer queueProcessor.Stop()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Metrics:            metrics,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RBACHandler:        rbacHandler,
		PerspectiveHandler: perspectiveHandler,
		DashboardHandler:   dashboardHandler,
		GenQueueHandler:    queueHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server exit", slog.Any("error", err))
	}
}
