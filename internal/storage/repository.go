// Package storage keeps an offline SQLite snapshot of the ledger and
// party lists. The sync worker writes it; the CLI falls back to it
// when the backend is unreachable, so the shop owner always has the
// last-known ledger.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"munimji/internal/core"

	_ "modernc.org/sqlite"
)

// PartyKind discriminates the two snapshot party lists.
type PartyKind string

const (
	Customers PartyKind = "customer"
	Suppliers PartyKind = "supplier"
)

const lastSyncKey = "last_sync"

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceTransactions swaps the snapshot ledger for the given list,
// preserving input order. A full replace mirrors how the client
// consumes the API: the list is small and fully refetched each sync.
func (r *SnapshotRepository) ReplaceTransactions(ctx context.Context, entries []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	const insert = `INSERT INTO transactions
		(id, position, date, party_name, amount_paise, type, status, note, category, payment_method, reconciled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, t := range entries {
		reconciled := 0
		if t.Reconciled {
			reconciled = 1
		}
		if _, err := tx.ExecContext(ctx, insert,
			t.ID, i, t.Date, t.PartyName, t.Amount.Paise,
			string(t.Type), string(t.Status), t.Note, t.Category,
			string(t.Method), reconciled); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// ListTransactions returns the snapshot ledger in its stored display
// order.
func (r *SnapshotRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	const query = `SELECT id, date, party_name, amount_paise, type, status, note, category, payment_method, reconciled
		FROM transactions ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var paise int64
		var typ, status, method string
		var reconciled int
		if err := rows.Scan(&t.ID, &t.Date, &t.PartyName, &paise,
			&typ, &status, &t.Note, &t.Category, &method, &reconciled); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money{Paise: paise}
		t.Type = core.TransactionType(typ)
		t.Status = core.Status(status)
		t.Method = core.PaymentMethod(method)
		t.Reconciled = reconciled != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceParties swaps one party list (customers or suppliers).
func (r *SnapshotRepository) ReplaceParties(ctx context.Context, kind PartyKind, parties []core.Party) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM parties WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("clear %s parties: %w", kind, err)
	}

	const insert = `INSERT INTO parties (id, kind, name, phone, balance_paise, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, p := range parties {
		if _, err := tx.ExecContext(ctx, insert,
			p.ID, string(kind), p.Name, p.Phone, p.Balance.Paise, p.LastActivity); err != nil {
			return fmt.Errorf("insert party %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ListParties returns one party list ordered by name.
func (r *SnapshotRepository) ListParties(ctx context.Context, kind PartyKind) ([]core.Party, error) {
	const query = `SELECT id, name, phone, balance_paise, last_activity
		FROM parties WHERE kind = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s parties: %w", kind, err)
	}
	defer rows.Close()

	var out []core.Party
	for rows.Next() {
		var p core.Party
		var paise int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &paise, &p.LastActivity); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		p.Balance = core.Money{Paise: paise}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records a successful sync time.
func (r *SnapshotRepository) MarkSynced(ctx context.Context, at time.Time) error {
	const upsert = `INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, upsert, lastSyncKey, at.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record sync time: %w", err)
	}
	return nil
}

// LastSynced returns the most recent sync time; the zero time means
// the snapshot has never been populated.
func (r *SnapshotRepository) LastSynced(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM sync_meta WHERE key = ?`, lastSyncKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read sync time: %w", err)
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sync time: %w", err)
	}
	return at, nil
}
