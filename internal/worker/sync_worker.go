// Package worker keeps the local ledger snapshot in sync with the
// gateway. A full refresh runs at startup and on a timer; ledger-update
// notifications from the broker trigger refreshes in between, so the
// snapshot follows WhatsApp activity without polling aggressively.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"munimji/internal/amqp"
	"munimji/internal/api"
	"munimji/internal/core"
	applog "munimji/internal/log"
	"munimji/internal/storage"
)

type SyncWorker struct {
	client    *api.Client
	snapshot  *storage.SnapshotRepository
	logger    *applog.Logger
	syncLimit int
}

func NewSyncWorker(client *api.Client, snapshot *storage.SnapshotRepository, logger *applog.Logger, syncLimit int) *SyncWorker {
	if syncLimit <= 0 {
		syncLimit = 500
	}
	return &SyncWorker{
		client:    client,
		snapshot:  snapshot,
		logger:    logger.WithComponent(applog.ComponentWorker),
		syncLimit: syncLimit,
	}
}

// RefreshAll pulls the ledger and both party lists from the gateway and
// swaps them into the snapshot. The three fetches run in parallel; a
// failure in any of them aborts the refresh without touching the
// snapshot.
func (w *SyncWorker) RefreshAll(ctx context.Context) error {
	start := time.Now()

	var (
		entries   []core.Transaction
		customers []core.Party
		suppliers []core.Party
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = w.client.Ledger(gctx, w.syncLimit)
		if err != nil {
			return fmt.Errorf("fetch ledger: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		customers, err = w.client.Customers(gctx)
		if err != nil {
			return fmt.Errorf("fetch customers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		suppliers, err = w.client.Suppliers(gctx)
		if err != nil {
			return fmt.Errorf("fetch suppliers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := w.snapshot.ReplaceTransactions(ctx, entries); err != nil {
		return fmt.Errorf("store ledger snapshot: %w", err)
	}
	if err := w.snapshot.ReplaceParties(ctx, storage.Customers, customers); err != nil {
		return fmt.Errorf("store customer snapshot: %w", err)
	}
	if err := w.snapshot.ReplaceParties(ctx, storage.Suppliers, suppliers); err != nil {
		return fmt.Errorf("store supplier snapshot: %w", err)
	}
	if err := w.snapshot.MarkSynced(ctx, time.Now()); err != nil {
		return fmt.Errorf("record sync time: %w", err)
	}

	w.logger.InfoContext(ctx, "snapshot refreshed",
		applog.FieldOperation, applog.OpSync,
		"entries", len(entries),
		"customers", len(customers),
		"suppliers", len(suppliers),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// HandleUpdate reacts to a ledger-update notification. Any action
// triggers a full refresh; the notification carries only the entry id,
// and a full swap is cheap at this scale.
func (w *SyncWorker) HandleUpdate(ctx context.Context, msg *amqp.LedgerUpdateMessage) error {
	w.logger.InfoContext(ctx, "ledger update received",
		"user_id", msg.UserID,
		applog.FieldEntryID, msg.EntryID,
		"action", msg.Action)
	return w.RefreshAll(ctx)
}

// Run performs a startup refresh, then refreshes on every tick until
// the context is canceled. A failed refresh is logged and retried on
// the next tick; the stale snapshot stays readable in the meantime.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RefreshAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "startup refresh failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RefreshAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "periodic refresh failed", applog.FieldError, err)
			}
		}
	}
}
