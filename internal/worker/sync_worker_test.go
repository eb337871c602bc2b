package worker_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"munimji/internal/amqp"
	"munimji/internal/api"
	applog "munimji/internal/log"
	"munimji/internal/session"
	"munimji/internal/storage"
	"munimji/internal/worker"
)

type staticTokens struct{ token string }

func (s staticTokens) Token() (string, error) {
	if s.token == "" {
		return "", session.ErrNoSession
	}
	return s.token, nil
}

func quietLogger() *applog.Logger {
	return applog.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(t *testing.T, handler http.Handler) (*worker.SyncWorker, *storage.SnapshotRepository) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, staticTokens{token: "tok"}, quietLogger(),
		api.WithRetries(0, time.Millisecond),
		api.WithResponseCacheTTL(time.Nanosecond))

	snapshot, err := storage.NewSnapshotRepository(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { snapshot.Close() })

	return worker.NewSyncWorker(client, snapshot, quietLogger(), 100), snapshot
}

func gatewayHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/dashboard/ledger"):
			w.Write([]byte(`[
				{"id": 7, "date": "2025-03-01", "type": "SALE", "amount": 100, "counterparty_name": "Asha Traders"},
				{"id": 8, "date": "2025-03-02", "type": "EXPENSE", "amount": 30.50, "description": "tea"}
			]`))
		case r.URL.Path == "/api/dashboard/customers":
			w.Write([]byte(`[{"id": 1, "name": "Asha Traders", "outstanding_balance": 250}]`))
		case r.URL.Path == "/api/dashboard/suppliers":
			w.Write([]byte(`[{"id": 2, "name": "Mehta Wholesale", "outstanding_balance": 1200.75}]`))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestRefreshAllPopulatesSnapshot(t *testing.T) {
	w, snapshot := newTestWorker(t, gatewayHandler(t))
	ctx := context.Background()

	require.NoError(t, w.RefreshAll(ctx))

	entries, err := snapshot.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "7", entries[0].ID)
	assert.Equal(t, "Asha Traders", entries[0].PartyName)
	assert.Equal(t, int64(10000), entries[0].Amount.Paise)
	assert.Equal(t, int64(3050), entries[1].Amount.Paise)

	customers, err := snapshot.ListParties(ctx, storage.Customers)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Asha Traders", customers[0].Name)

	suppliers, err := snapshot.ListParties(ctx, storage.Suppliers)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, int64(120075), suppliers[0].Balance.Paise)

	at, err := snapshot.LastSynced(ctx)
	require.NoError(t, err)
	assert.False(t, at.IsZero())
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestRefreshAllFailureLeavesSnapshotUntouched(t *testing.T) {
	var failSuppliers bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failSuppliers && r.URL.Path == "/api/dashboard/suppliers" {
			http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
			return
		}
		gatewayHandler(t).ServeHTTP(w, r)
	})

	w, snapshot := newTestWorker(t, handler)
	ctx := context.Background()
	require.NoError(t, w.RefreshAll(ctx))

	failSuppliers = true
	require.Error(t, w.RefreshAll(ctx))

	// The earlier snapshot survives a failed refresh.
	entries, err := snapshot.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHandleUpdateTriggersRefresh(t *testing.T) {
	w, snapshot := newTestWorker(t, gatewayHandler(t))
	ctx := context.Background()

	msg := amqp.NewLedgerUpdateMessage(1, "7", amqp.ActionCreated)
	require.NoError(t, w.HandleUpdate(ctx, msg))

	entries, err := snapshot.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
