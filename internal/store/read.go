package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tokendb/internal/tokens"
)

// entryOrder is the canonical token database order in SQL. NULL dates are
// present entries and sort first.
const entryOrder = `token ASC, date_removed IS NOT NULL ASC, date_removed DESC, string COLLATE BINARY ASC`

// ListSnapshots returns all snapshots ordered by seq.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, label, entry_count
		FROM snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Seq, &snap.Label, &snap.EntryCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// ReadSnapshot loads the token database archived under id.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (*tokens.Database, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM snapshots WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read snapshot %s: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT token, string, date_removed
		FROM entries
		WHERE snapshot_id = ?
		ORDER BY `+entryOrder, id)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []tokens.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return tokens.FromEntries(entries), nil
}

// LatestSnapshot returns the snapshot with the highest seq and its database.
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, *tokens.Database, error) {
	var snap Snapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, label, entry_count
		FROM snapshots
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&snap.ID, &snap.Seq, &snap.Label, &snap.EntryCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil, fmt.Errorf("latest snapshot: %w", ErrSnapshotNotFound)
	}
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("latest snapshot: %w", err)
	}

	db, err := s.ReadSnapshot(ctx, snap.ID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, db, nil
}

// TokenMatch is an archived entry for a token and the snapshot holding it.
type TokenMatch struct {
	Snapshot Snapshot
	Entry    tokens.Entry
}

// LookupToken returns every archived entry for token, ordered by snapshot
// seq and then canonical entry order.
func (s *Store) LookupToken(ctx context.Context, token uint32) ([]TokenMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.seq, s.label, s.entry_count, e.token, e.string, e.date_removed
		FROM entries e
		JOIN snapshots s ON e.snapshot_id = s.id
		WHERE e.token = ?
		ORDER BY s.seq ASC, e.date_removed IS NOT NULL ASC, e.date_removed DESC, e.string COLLATE BINARY ASC
	`, int64(token))
	if err != nil {
		return nil, fmt.Errorf("query token %08x: %w", token, err)
	}
	defer rows.Close()

	matches := []TokenMatch{}
	for rows.Next() {
		var (
			m    TokenMatch
			tok  int64
			str  string
			date sql.NullString
		)
		if err := rows.Scan(&m.Snapshot.ID, &m.Snapshot.Seq, &m.Snapshot.Label, &m.Snapshot.EntryCount, &tok, &str, &date); err != nil {
			return nil, fmt.Errorf("scan token match: %w", err)
		}
		m.Entry, err = buildEntry(tok, str, date)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token matches: %w", err)
	}

	return matches, nil
}

func scanEntry(rows *sql.Rows) (tokens.Entry, error) {
	var (
		tok  int64
		str  string
		date sql.NullString
	)
	if err := rows.Scan(&tok, &str, &date); err != nil {
		return tokens.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	return buildEntry(tok, str, date)
}

func buildEntry(tok int64, str string, date sql.NullString) (tokens.Entry, error) {
	e := tokens.Entry{Token: uint32(tok), String: str}
	if date.Valid {
		d, err := tokens.ParseDate(date.String)
		if err != nil {
			return tokens.Entry{}, fmt.Errorf("entry %08x: %w", e.Token, err)
		}
		e.DateRemoved = d
	}
	return e, nil
}
