package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/temple-erp/temple-erp/internal/accounting/fiscal"
	"github.com/temple-erp/temple-erp/internal/accounting/journals"
	"github.com/temple-erp/temple-erp/internal/accounting/ledgers"
	"github.com/temple-erp/temple-erp/internal/accounting/mappings"
	"github.com/temple-erp/temple-erp/internal/accounting/openings"
	"github.com/temple-erp/temple-erp/internal/accounting/reports"
	"github.com/temple-erp/temple-erp/internal/app"
	"github.com/temple-erp/temple-erp/internal/observability"
	"github.com/temple-erp/temple-erp/internal/platform/cache"
	"github.com/temple-erp/temple-erp/internal/platform/db"
	"github.com/temple-erp/temple-erp/internal/posting"
	"github.com/temple-erp/temple-erp/internal/purchases"
	"github.com/temple-erp/temple-erp/internal/settings"
)

type invoicePoster struct {
	engine  *posting.Engine
	metrics *observability.Metrics
}

func (p invoicePoster) PostInvoiceJournal(ctx context.Context, invoiceID int64) (int64, string, error) {
	res, err := p.engine.PostInvoiceJournal(ctx, invoiceID)
	if err != nil {
		p.metrics.RecordPosting(posting.SourceModule, "error")
		return 0, "", err
	}
	p.metrics.RecordPosting(posting.SourceModule, "ok")
	return res.EntryID, res.EntryCode, nil
}

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

	// Balance caching degrades to direct reads when Redis is unavailable.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balance cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	fiscalRepo := fiscal.NewRepository(dbpool)
	fiscalService := fiscal.NewService(fiscalRepo)
	fiscalHandler := fiscal.NewHandler(logger, fiscalService)

	ledgersRepo := ledgers.NewRepository(dbpool)
	ledgersService := ledgers.NewService(ledgersRepo)
	ledgersHandler := ledgers.NewHandler(logger, ledgersService)

	mappingsRepo := mappings.NewRepository(dbpool)
	mappingsHandler := mappings.NewHandler(logger, mappingsRepo)

	settingsStore := settings.NewStore(dbpool)
	settingsService := settings.NewService(settingsStore)
	settingsHandler := settings.NewHandler(logger, settingsService)

	openingsRepo := openings.NewRepository(dbpool)
	openingsService := openings.NewService(openingsRepo, ledgersService)
	openingsHandler := openings.NewHandler(logger, openingsService)

	balanceCache := reports.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, fiscalService, openingsService, balanceCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	journalsRepo := journals.NewRepository(dbpool)
	journalsService := journals.NewService(journalsRepo, fiscalService)
	journalsHandler := journals.NewHandler(logger, journalsService)

	invoicesRepo := purchases.NewRepository(dbpool)
	invoicesService := purchases.NewService(invoicesRepo)

	postingRepo := posting.NewRepository(dbpool)
	engine := posting.NewEngine(postingRepo, invoicesRepo, fiscalService, mappingsRepo, settingsService, balanceCache)
	invoicesHandler := purchases.NewHandler(logger, invoicesService, invoicePoster{engine: engine, metrics: metrics})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgersHandler:  ledgersHandler,
		JournalsHandler: journalsHandler,
		ReportsHandler:  reportsHandler,
		OpeningsHandler: openingsHandler,
		FiscalHandler:   fiscalHandler,
		MappingsHandler: mappingsHandler,
		SettingsHandler: settingsHandler,
		InvoicesHandler: invoicesHandler,
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
