package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// The load log is an ordinary relation scoped to the store: created on
// first InitSchema, appended once per non-skipped load, never mutated.
// Per-table post-load totals are stored as one JSON column for the same
// reason every canonical table carries a metadata column — additive
// evolution without structural rewrites.

// LoadEntry is one audit row.
type LoadEntry struct {
	Source      string         `json:"source"`
	LoadedAt    time.Time      `json:"loaded_at"`
	Duration    time.Duration  `json:"duration"`
	Fingerprint string         `json:"fingerprint"`
	Totals      map[string]int `json:"totals"` // post-load row count per table
}

func (s *Store) initLoadLog(ctx context.Context) error {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s,
  %s %s NOT NULL,
  %s %s NOT NULL,
  %s %s NOT NULL,
  %s %s NOT NULL,
  %s %s NOT NULL DEFAULT '{}'
);`,
		s.d.QuoteIdent("load_log"),
		s.d.SurrogateKey(),
		s.d.QuoteIdent("source"), s.d.ColumnType("text"),
		s.d.QuoteIdent("loaded_at"), s.d.ColumnType("text"),
		s.d.QuoteIdent("duration_ms"), s.d.ColumnType("int"),
		s.d.QuoteIdent("fingerprint"), s.d.ColumnType("text"),
		s.d.QuoteIdent("table_counts"), s.d.ColumnType("text"),
	)
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("store: create load_log: %w", err)
	}
	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s);",
		s.d.QuoteIdent("load_log_source"),
		s.d.QuoteIdent("load_log"),
		s.d.QuoteIdent("source"),
		s.d.QuoteIdent("loaded_at"),
	)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("store: index load_log: %w", err)
	}
	return nil
}

// appendLoadLog writes the audit row inside the load's transaction, so a
// failed load logs nothing and a logged load always committed.
func (s *Store) appendLoadLog(ctx context.Context, tx *sql.Tx, source, fingerprint string, d time.Duration, stats map[string]TableStats) error {
	totals := make(map[string]int, len(stats))
	for table, ts := range stats {
		totals[table] = ts.Total
	}
	counts, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("store: encode load_log counts: %w", err)
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (%s, %s, %s, %s, %s)",
		s.d.QuoteIdent("load_log"),
		s.d.QuoteIdent("source"),
		s.d.QuoteIdent("loaded_at"),
		s.d.QuoteIdent("duration_ms"),
		s.d.QuoteIdent("fingerprint"),
		s.d.QuoteIdent("table_counts"),
		s.d.Placeholder(1), s.d.Placeholder(2), s.d.Placeholder(3), s.d.Placeholder(4), s.d.Placeholder(5),
	)
	_, err = tx.ExecContext(ctx, insert,
		source,
		time.Now().UTC().Format(time.RFC3339Nano),
		d.Milliseconds(),
		fingerprint,
		string(counts),
	)
	if err != nil {
		return fmt.Errorf("store: append load_log: %w", err)
	}
	return nil
}

// LastFingerprint returns the fingerprint of the most recent load for the
// source, or "" when the source has never been loaded.
func (s *Store) LastFingerprint(ctx context.Context, source string) (string, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s ORDER BY %s DESC LIMIT 1",
		s.d.QuoteIdent("fingerprint"),
		s.d.QuoteIdent("load_log"),
		s.d.QuoteIdent("source"),
		s.d.Placeholder(1),
		s.d.QuoteIdent("id"),
	)
	var fp string
	err := s.db.QueryRowContext(ctx, query, source).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: last fingerprint for %s: %w", source, err)
	}
	return fp, nil
}

// History returns the source's loads in chronological order.
func (s *Store) History(ctx context.Context, source string) ([]LoadEntry, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM %s WHERE %s = %s ORDER BY %s ASC",
		s.d.QuoteIdent("loaded_at"),
		s.d.QuoteIdent("duration_ms"),
		s.d.QuoteIdent("fingerprint"),
		s.d.QuoteIdent("table_counts"),
		s.d.QuoteIdent("load_log"),
		s.d.QuoteIdent("source"),
		s.d.Placeholder(1),
		s.d.QuoteIdent("id"),
	)
	rows, err := s.db.QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("store: history for %s: %w", source, err)
	}
	defer rows.Close()

	var out []LoadEntry
	for rows.Next() {
		var (
			loadedAt   string
			durationMS int64
			fp         string
			counts     string
		)
		if err := rows.Scan(&loadedAt, &durationMS, &fp, &counts); err != nil {
			return nil, fmt.Errorf("store: history scan: %w", err)
		}
		e := LoadEntry{
			Source:      source,
			Duration:    time.Duration(durationMS) * time.Millisecond,
			Fingerprint: fp,
			Totals:      map[string]int{},
		}
		if ts, err := time.Parse(time.RFC3339Nano, loadedAt); err == nil {
			e.LoadedAt = ts
		}
		if err := json.Unmarshal([]byte(counts), &e.Totals); err != nil {
			return nil, fmt.Errorf("store: history counts: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: history for %s: %w", source, err)
	}
	return out, nil
}
