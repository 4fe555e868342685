package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, logger := cli.MustBootstrap(applog.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, err := cli.InitSQLite(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	// Events are optional; the API keeps working without a broker.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.Connect(ctx, 5, cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no ledger events will be published")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:            services.NewLedgerService(repo, publisher),
		Recurring:         services.NewRecurringService(repo, publisher),
		Periods:           services.NewPeriodService(repo),
		Store:             repo,
		RequestsPerMinute: cfg.RateLimit,
		StatusCacheSize:   cfg.StatusCacheSize,
		StatusCacheTTL:    cfg.StatusCacheTTL,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	processor := services.NewPeriodProcessor(repo, publisher)
	processor.OnPeriodClosed(srv.InvalidateStatus)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return processor.Run(gctx, cfg.PeriodCheckInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
