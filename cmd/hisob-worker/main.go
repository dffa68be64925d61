package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"hisob/internal/amqp"
	"hisob/internal/cache"
	"hisob/internal/cli"
	"hisob/internal/config"
	"hisob/internal/log"
	gsheet "hisob/internal/sheets/google"
	"hisob/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mirror, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	caches := cache.NewManager()
	caches.Register(mirror.Cache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer broker.Close()

	w := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize)
	logger.Info("Performing startup sync check", log.FieldOperation, log.OpStartup)
	if err := w.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broker.Consume(gctx, w.HandleMessage) })
	g.Go(func() error { return w.Run(gctx, cfg.SyncInterval) })

	logger.Info("hisob-worker running",
		"queue", cfg.AMQPQueue,
		"sheet", cfg.GoogleSheetName,
		"interval", cfg.SyncInterval)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("hisob-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("hisob-worker stopped")
}
