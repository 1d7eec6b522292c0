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
	"github.com/redis/go-redis/v9"

	"github.com/tlaloc-sg/tlaloc-erp/internal/app"
	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/catalog"
	"github.com/tlaloc-sg/tlaloc-erp/internal/costing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/materials"
	"github.com/tlaloc-sg/tlaloc-erp/internal/notify"
	"github.com/tlaloc-sg/tlaloc-erp/internal/observability"
	"github.com/tlaloc-sg/tlaloc-erp/internal/orders"
	platformdb "github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/procurement"
	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
	"github.com/tlaloc-sg/tlaloc-erp/internal/rates"
	"github.com/tlaloc-sg/tlaloc-erp/internal/reports"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
	"github.com/tlaloc-sg/tlaloc-erp/internal/suppliers"
	"github.com/tlaloc-sg/tlaloc-erp/internal/support"
	"github.com/tlaloc-sg/tlaloc-erp/jobs"
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

	dbpool, err := platformdb.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "tlaloc_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	notifier := notify.New(authService, jobClient, logger)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	materialsRepo := materials.NewRepository(dbpool)
	materialsService := materials.NewService(materialsRepo)
	materialsHandler := materials.NewHandler(logger, materialsService)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	ratesRepo := rates.NewRepository(dbpool)
	ratesService := rates.NewService(ratesRepo)
	ratesHandler := rates.NewHandler(logger, ratesService)

	quotesRepo := quotes.NewRepository(dbpool)
	quotesService := quotes.NewService(quotesRepo, catalogService, ratesService).
		WithMetrics(metrics).
		WithNotifier(notifier)
	quotesHandler := quotes.NewHandler(logger, quotesService)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, quotesService).WithNotifier(notifier)
	ordersHandler := orders.NewHandler(logger, ordersService)

	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementRepo, materialsService, suppliersService)
	procurementHandler := procurement.NewHandler(logger, procurementService)

	costingRepo := costing.NewRepository(dbpool)
	costingService := costing.NewService(costingRepo).WithMetrics(metrics)
	costingHandler := costing.NewHandler(logger, costingService)

	supportRepo := support.NewRepository(dbpool)
	supportService := support.NewService(supportRepo)
	supportHandler := support.NewHandler(logger, supportService)

	reportsHandler := reports.NewHandler(logger, quotesService, costingService)

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
		CatalogHandler:     catalogHandler,
		MaterialsHandler:   materialsHandler,
		SuppliersHandler:   suppliersHandler,
		RatesHandler:       ratesHandler,
		QuotesHandler:      quotesHandler,
		OrdersHandler:      ordersHandler,
		ProcurementHandler: procurementHandler,
		CostingHandler:     costingHandler,
		SupportHandler:     supportHandler,
		ReportsHandler:     reportsHandler,
		JobHandler:         jobHandler,
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
