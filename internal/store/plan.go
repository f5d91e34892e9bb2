package store

import (
	"fmt"
	"strings"

	"chartfold/internal/records"
	"chartfold/internal/schema"
)

// tablePlan holds the SQL a load needs for one table, built once per open
// store from the static column registry — never derived from incoming row
// contents.
type tablePlan struct {
	table string
	key   []string

	// upsert inserts a row or, on natural-key conflict, rewrites every
	// non-key column from the incoming row. For a table whose columns are
	// all part of the key there is nothing to rewrite, so the plan degrades
	// to insert-or-ignore instead of emitting an empty SET clause.
	upsert string

	// snapshot selects (id, key columns...) for one source, the basis for
	// new/existing classification and stale pruning.
	snapshot string

	// deleteByID removes a single pruned row by surrogate id.
	deleteByID string
}

// planTable builds the plan for one registry entry under the given dialect.
func planTable(d schema.Dialect, t *records.TableSpec) (*tablePlan, error) {
	cols := t.Columns()
	if len(cols) == 0 {
		return nil, fmt.Errorf("store: table %s has no columns", t.Name)
	}
	keySet := make(map[string]bool, len(t.Key))
	for _, k := range t.Key {
		keySet[k] = true
	}

	names := make([]string, len(cols))
	binds := make([]string, len(cols))
	var updates []string
	for i, c := range cols {
		names[i] = d.QuoteIdent(c.Name)
		binds[i] = d.Placeholder(i + 1)
		if !keySet[c.Name] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", d.QuoteIdent(c.Name), d.QuoteIdent(c.Name)))
		}
	}
	keyIdents := make([]string, len(t.Key))
	for i, k := range t.Key {
		keyIdents[i] = d.QuoteIdent(k)
	}

	conflict := fmt.Sprintf("ON CONFLICT (%s)", strings.Join(keyIdents, ", "))
	var action string
	if len(updates) == 0 {
		// Pure-identity table: duplicate keys are simply ignored.
		action = "DO NOTHING"
	} else {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	upsert := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) %s %s",
		d.QuoteIdent(t.Name),
		strings.Join(names, ", "),
		strings.Join(binds, ", "),
		conflict,
		action,
	)

	snapshot := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s = %s",
		d.QuoteIdent("id"),
		strings.Join(keyIdents, ", "),
		d.QuoteIdent(t.Name),
		d.QuoteIdent("source"),
		d.Placeholder(1),
	)

	deleteByID := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = %s",
		d.QuoteIdent(t.Name),
		d.QuoteIdent("id"),
		d.Placeholder(1),
	)

	return &tablePlan{
		table:      t.Name,
		key:        t.Key,
		upsert:     upsert,
		snapshot:   snapshot,
		deleteByID: deleteByID,
	}, nil
}
