// munimji-sync keeps the local ledger snapshot fresh. It refreshes the
// snapshot from the dashboard API on startup and on a timer, and reacts
// to ledger-update notifications from the broker when one is
// configured.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"munimji/internal/amqp"
	"munimji/internal/api"
	"munimji/internal/cache"
	"munimji/internal/cli"
	applog "munimji/internal/log"
	"munimji/internal/worker"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(*verbose)
	logger = logger.WithComponent(applog.ComponentApp)

	logger.Info("Starting munimji-sync")

	cfg := cli.LoadAndValidateConfig(logger)

	sessions := cli.OpenSession(logger, cfg.SessionFile)
	if _, err := sessions.Token(); err != nil {
		logger.Error("No active session; run 'munimji login' first", applog.FieldError, err)
		os.Exit(1)
	}

	snapshot := cli.InitSnapshot(logger, cfg.SnapshotDBPath)
	defer snapshot.Close()

	client := api.NewClient(cfg.APIBaseURL, sessions, logger,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithRetries(cfg.MaxRetries, 500*time.Millisecond))

	// The gateway client caches GET responses; in a long-lived process
	// expired entries need periodic sweeping.
	caches := cache.NewManager()
	caches.Register(client.ResponseCache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	syncWorker := worker.NewSyncWorker(client, snapshot, logger, cfg.SyncLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume broker notifications when a broker is configured; the
	// periodic refresh alone is enough without one.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeLedgerUpdates(ctx, func(msg *amqp.LedgerUpdateMessage) error {
				return syncWorker.HandleUpdate(ctx, msg)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", applog.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, relying on periodic refresh")
	}

	go func() {
		if err := syncWorker.Run(ctx, cfg.SyncInterval); err != nil && err != context.Canceled {
			logger.Error("Sync loop failed", applog.FieldError, err)
			cancel()
		}
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		cancel()
	})
	cli.WaitForShutdown(shutdownCtx, done)
}
