package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/feed"
	apphttp "fintrack/internal/http"
	"fintrack/internal/identity"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	memo := report.NewMemo(report.Options{
		Location:  cfg.Location(),
		DayLayout: cfg.ReportDayLayout,
	}, cfg.ReportCacheSize, cfg.ReportCacheTTL)
	caches := cache.NewManager()
	caches.Register("reports", memo.Cache())
	caches.StartCleanup(cfg.ReportCacheTTL)

	reports := services.NewReportService(be.Store, be.Store, be.Store, memo)
	hub := feed.NewHub(reports)
	changes := &services.Changes{
		Notifiers: []services.Notifier{reports, hub},
		Publisher: be.Publisher,
	}

	ids := identity.NewProvider(be.Store, be.Store, identity.Options{SessionTTL: cfg.SessionTTL})
	authEvents, stopWatch := ids.Watch()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Identity:     ids,
		Transactions: services.NewTransactionService(be.Store, changes),
		Budgets:      services.NewBudgetService(be.Store, changes),
		Profiles:     services.NewProfileService(be.Store, changes),
		Reports:      reports,
		Feed:         hub,
		Logger:       logger,
	}, apphttp.Options{MetricsEnabled: cfg.MetricsEnabled})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		stopWatch()
		caches.Stop()
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	go logAuthEvents(logger.WithComponent(applog.ComponentIdentity), authEvents)
	go purgeSessions(ctx, logger.WithComponent(applog.ComponentIdentity), ids, cfg.SessionTTL)

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", be.Publisher != nil,
		"metrics_enabled", cfg.MetricsEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func logAuthEvents(logger *applog.Logger, events <-chan identity.AuthEvent) {
	for ev := range events {
		logger.Info("Auth state changed", "event", string(ev.Kind), applog.FieldOwnerID, ev.OwnerID)
	}
}

// purgeSessions drops expired sessions every half TTL until ctx ends.
func purgeSessions(ctx context.Context, logger *applog.Logger, ids *identity.Provider, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ids.PurgeExpired(ctx)
			if err != nil {
				logger.Error("Failed to purge expired sessions", applog.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Info("Purged expired sessions", "count", n)
			}
		}
	}
}
