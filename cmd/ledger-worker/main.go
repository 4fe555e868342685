package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, logger := cli.MustBootstrap(applog.ComponentWorker)
	if !cfg.EventsEnabled() {
		logger.Error("ledger-worker needs AMQP_URL")
		os.Exit(1)
	}
	logger.Info("Starting ledger-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, err := cli.InitSQLite(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.Connect(ctx, 10, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.EventTransactionPosted)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// The worker also announces the recurring expenses it finds.
	recurring := services.NewRecurringService(repo, client)
	w := worker.NewRecurringWorker(recurring, cfg.RecurringScanInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := client.ConsumeEvents(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Periodic sweep for events lost while the worker was down.
	g.Go(func() error {
		return w.RunSweep(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("ledger-worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("ledger-worker shutdown complete")
}
