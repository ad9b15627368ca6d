package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hotelia/frontdesk/cmd/frontdesk/cli"
	"github.com/hotelia/frontdesk/internal/app"
	"github.com/hotelia/frontdesk/internal/approval"
	"github.com/hotelia/frontdesk/internal/auth"
	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/dashboard"
	"github.com/hotelia/frontdesk/internal/employees"
	"github.com/hotelia/frontdesk/internal/observability"
	"github.com/hotelia/frontdesk/internal/platform/cache"
	"github.com/hotelia/frontdesk/internal/platform/db"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/rooms"
	"github.com/hotelia/frontdesk/internal/shared"
	"github.com/hotelia/frontdesk/jobs"
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		err := cli.Run(ctx, cfg.RedisAddr, os.Args[2:], func(line string) { fmt.Println(line) })
		if err != nil {
			logger.Error("jobs cli", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

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

	// The audit trail is optional; without a DSN decisions are only logged.
	var auditPool *pgxpool.Pool
	if cfg.AuditPGDSN != "" {
		auditPool, err = db.New(ctx, cfg.AuditPGDSN)
		if err != nil {
			logger.Error("connect audit database", slog.Any("error", err))
			os.Exit(1)
		}
		defer auditPool.Close()
	}
	auditLogger := shared.NewAuditLogger(auditPool)
	approvalRecorder := shared.NewApprovalRecorder(auditPool, logger)

	sessionManager := shared.NewSessionManager(redisClient, "frontdesk_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	metrics := observability.NewMetrics()
	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, metrics, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts, cfg.DashboardRefreshInterval/2)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
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

	roomsService := rooms.NewService(backendClient)
	bookingsService := bookings.NewService(backendClient, roomsService, auditLogger, jobClient, logger)
	approvalService := approval.NewService(approval.Deps{
		Backend:   backendClient,
		Bookings:  bookingsService,
		Rooms:     roomsService,
		Store:     approval.NewStore(redisClient, cfg.ApprovalTTL),
		Approvals: approvalRecorder,
		Audit:     auditLogger,
		Notifier:  jobClient,
		Logger:    logger,
	})
	dashboardService := dashboard.NewService(backendClient, redisClient, cfg.DashboardRefreshInterval, logger)
	employeesService := employees.NewService(backendClient, auditLogger, logger)
	billingService := billing.NewService(backendClient, auditLogger, logger)
	authService := auth.NewService(backendClient, auditLogger, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		RBACMiddleware:   rbacMiddleware,
		Metrics:          metrics,
		AuthHandler:      auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacMiddleware),
		RoomsHandler:     rooms.NewHandler(logger, roomsService, rbacMiddleware),
		BookingsHandler:  bookings.NewHandler(logger, bookingsService, rbacMiddleware),
		ApprovalHandler:  approval.NewHandler(logger, approvalService, rbacMiddleware),
		BillingHandler:   billing.NewHandler(logger, billingService, rbacMiddleware),
		EmployeesHandler: employees.NewHandler(logger, employeesService, rbacMiddleware),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService, rbacMiddleware),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendBaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
