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

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/ai"
	"github.com/pulseboard/pulseboard/internal/app"
	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/observability"
	"github.com/pulseboard/pulseboard/internal/occ"
	"github.com/pulseboard/pulseboard/internal/platform/cache"
	"github.com/pulseboard/pulseboard/internal/platform/db"
	"github.com/pulseboard/pulseboard/internal/ratelimit"
	"github.com/pulseboard/pulseboard/internal/records"
	"github.com/pulseboard/pulseboard/internal/workspace"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	metrics := observability.NewMetrics()

	verifier := auth.NewHS256Verifier(cfg.AuthTokenSecret)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(verifier, verifier, authRepo, logger, cfg.AuthTokenTTL)
	gate := auth.Gate{Service: authService, Logger: logger}

	workspaceRepo := workspace.NewRepository(pool)
	workspaceAuthz := workspace.Authorizer{Repo: workspaceRepo, Logger: logger}

	policies := ratelimit.DefaultPolicies(func(r *http.Request) string {
		if id := workspace.RequestWorkspaceID(r); id != "" {
			return "workspace:" + id
		}
		return ratelimit.KeyByIP(r)
	})

	usageStore := ai.NewUsageStore(pool)
	quotaGuard := ai.NewQuotaGuard(usageStore, cfg.AIDailyLimit, cfg.AIMonthlyLimit, logger)
	responseCache := ai.NewResponseCache(redisClient, cfg.AICacheTTL)
	aiHandler := ai.NewHandler(ai.EchoCompleter{MaxTokens: cfg.AIMaxTokens}, responseCache, usageStore, logger)

	engine := occ.NewEngine(occ.NewPGStore(pool), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Gate:           gate,
		AuthHandler:    auth.NewHandler(authService, logger),
		Workspace:      workspaceAuthz,
		WorkspaceAdmin: workspace.NewHandler(workspaceRepo, logger),
		Policies:       policies,
		QuotaGuard:     quotaGuard,
		AIHandler:      aiHandler,
		RecordsHandler: records.NewHandler(engine, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		err := policies.Sweeper(logger).Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
