// Package export turns a transaction list into portable artifacts: a
// local CSV file or rows appended to a Google Sheet. Export is a
// faithful row-per-transaction dump — no aggregation, filtering or
// reformatting happens here.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"munimji/internal/core"
)

// Header is the fixed CSV header row.
var Header = []string{"Date", "Party", "Type", "Amount", "Status", "Note"}

// RowAppender is the remote export target (Google Sheets adapter).
type RowAppender interface {
	AppendLedger(ctx context.Context, title string, entries []core.Transaction) error
}

// Filename derives the suggested artifact name from a human-readable
// title: lower-cased, spaces replaced, "_ledger.csv" suffix.
// "Cash Book" becomes "cash_book_ledger.csv".
func Filename(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "export"
	}
	return name + "_ledger.csv"
}

// WriteCSV writes the header followed by one row per transaction in
// input order. Every field is taken verbatim from the entry; an absent
// note becomes the empty string.
func WriteCSV(w io.Writer, entries []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range entries {
		row := []string{
			t.Date,
			t.PartyName,
			string(t.Type),
			t.Amount.String(),
			string(t.Status),
			t.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the ledger to dir under the derived filename and
// returns the full path. This is the client-initiated file save; no
// network call is involved.
func SaveCSV(dir, title string, entries []core.Transaction) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(title))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, entries); err != nil {
		return "", err
	}
	return path, nil
}
