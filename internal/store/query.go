package store

import (
	"context"
	"fmt"

	"chartfold/internal/records"
)

// Query runs an arbitrary read query and returns the rows as column-name
// maps. Driver []byte values are converted to strings so TEXT columns read
// naturally regardless of backend.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: query columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("store: query scan: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			m[c] = v
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return out, nil
}

// Summary returns the current row count of every canonical table. The load
// log is not included; History covers it.
func (s *Store) Summary(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(records.Tables))
	for i := range records.Tables {
		t := &records.Tables[i]
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.d.QuoteIdent(t.Name))
		var n int
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("store: count %s: %w", t.Name, err)
		}
		out[t.Name] = n
	}
	return out, nil
}
