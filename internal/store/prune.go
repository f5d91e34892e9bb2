package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// pruneStale deletes every snapshotted row whose natural key is absent
// from the incoming set, and returns how many were removed. It only ever
// sees one source's snapshot, so other sources' rows are untouchable by
// construction.
//
// Two edges are intentional, not accidental:
//
//   - An empty incoming set prunes the entire snapshot — the source now
//     reports zero records of this type, and replace mode takes it at its
//     word.
//   - A table whose natural key is source alone has a snapshot of at most
//     one undifferentiated row, so pruning degrades to wiping the source's
//     rows for that table. The registry only permits such keys on tables
//     that opted in via SourceWipe.
//
// Every removal is counted; nothing is deleted without being reported.
func (s *Store) pruneStale(ctx context.Context, tx *sql.Tx, plan *tablePlan, snap map[string]int64, incoming map[string]struct{}) (int, error) {
	var stale []string
	for key := range snap {
		if _, ok := incoming[key]; !ok {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	sort.Strings(stale) // deterministic delete order

	stmt, err := tx.PrepareContext(ctx, plan.deleteByID)
	if err != nil {
		return 0, fmt.Errorf("store: prepare prune %s: %w", plan.table, err)
	}
	defer stmt.Close()

	removed := 0
	for _, key := range stale {
		if _, err := stmt.ExecContext(ctx, snap[key]); err != nil {
			return removed, fmt.Errorf("store: prune %s: %w", plan.table, err)
		}
		removed++
	}
	return removed, nil
}
