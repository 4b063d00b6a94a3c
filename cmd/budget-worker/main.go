package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg.Log, log.ComponentWorker)

	logger.Info("Starting budget-worker")

	res, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DB.Backend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}()

	ledger := services.NewLedgerService(res.Store, res.Events(), logger)
	recurring := services.NewRecurringService(res.Store, ledger, logger)
	scheduler := services.NewScheduler(recurring, services.SchedulerConfig{
		Interval:    cfg.Worker.Interval,
		HorizonDays: cfg.Budget.Horizon,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduler stop", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Start(gctx)
	})

	if res.HasEvents() {
		exporter, err := cli.NewExporter(gctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize exporter", log.FieldError, err)
			os.Exit(1)
		}
		exportWorker := worker.NewExportWorker(res.Store, exporter, logger)
		g.Go(func() error {
			err := res.Publisher.Consume(gctx, exportWorker.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP not configured, ledger export disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
