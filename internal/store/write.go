package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/tokendb/internal/tokens"
)

// Snapshot describes one archived token database.
type Snapshot struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Label      string `json:"label"`
	EntryCount int    `json:"entry_count"`
}

// WriteSnapshot archives every entry of db as a new snapshot. The snapshot
// and its entries are written in one transaction.
func (s *Store) WriteSnapshot(ctx context.Context, label string, db *tokens.Database) (Snapshot, error) {
	entries := db.Entries()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots`).Scan(&seq); err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: next seq: %w", err)
	}

	snap := Snapshot{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Seq:        seq,
		Label:      label,
		EntryCount: len(entries),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, seq, label, entry_count)
		VALUES (?, ?, ?, ?)
	`, snap.ID, snap.Seq, snap.Label, snap.EntryCount)
	if err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (snapshot_id, token, string, date_removed)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, snap.ID, int64(e.Token), e.String, dateValue(e)); err != nil {
			return Snapshot{}, fmt.Errorf("write snapshot entry %08x: %w", e.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: commit: %w", err)
	}

	return snap, nil
}

// dateValue stores present entries as NULL.
func dateValue(e tokens.Entry) sql.NullString {
	if !e.Removed() {
		return sql.NullString{}
	}
	return sql.NullString{String: tokens.FormatDate(e.DateRemoved), Valid: true}
}
