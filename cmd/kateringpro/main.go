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

	"github.com/Createch-Studio/KateringPro-sub000/internal/app"
	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/gateway"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/customers"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/menus"
	"github.com/Createch-Studio/KateringPro-sub000/internal/observability"
	"github.com/Createch-Studio/KateringPro-sub000/internal/operators"
	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/cache"
	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/db"
	"github.com/Createch-Studio/KateringPro-sub000/internal/pos"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
	"github.com/Createch-Studio/KateringPro-sub000/internal/shared"
	"github.com/Createch-Studio/KateringPro-sub000/jobs"
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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	menuRepo := menus.NewRepository(dbpool)
	menuCache := menus.NewCache(redisClient, cfg.MenuCacheTTL)
	menuService := menus.NewService(menuRepo, menuCache)
	menuHandler := menus.NewHandler(logger, menuService)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService)

	operatorRepo := operators.NewRepository(dbpool)
	operatorService := operators.NewService(operatorRepo)

	orderRepo := orders.NewRepository(dbpool)
	orderService := orders.NewService(orderRepo)
	orderHandler := orders.NewHandler(logger, orderService)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo)

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayServerKey, cfg.GatewayTimeout)

	carts := pos.NewCartStore()
	registry := pos.NewAttemptRegistry()
	go registry.RunSweeper(ctx, cfg.QRISPendingTTL, time.Minute)
	posRepo := pos.NewRepository(dbpool, orderRepo, billingRepo)
	registerService := pos.NewRegisterService(posRepo, billingRepo, operatorService, logger)
	checkoutService := pos.NewCheckoutService(carts, posRepo, posRepo, customerService, idempotencyStore, metrics, logger)
	qrisCoordinator := pos.NewQRISCoordinator(
		carts, posRepo, posRepo, customerService, billingRepo, orderRepo,
		gatewayClient, registry, metrics, logger,
	)
	posHandler := pos.NewHandler(logger, carts, menuService, registerService, checkoutService, qrisCoordinator)

	reconciler := billing.NewReconciler(billingRepo, registry, auditLogger, cfg.GatewayServerKey, logger)
	billingHandler := billing.NewHandler(logger, billingService, reconciler, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		POSHandler:       posHandler,
		OrdersHandler:    orderHandler,
		BillingHandler:   billingHandler,
		MenusHandler:     menuHandler,
		CustomersHandler: customerHandler,
		JobHandler:       jobHandler,
		Pool:             dbpool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
