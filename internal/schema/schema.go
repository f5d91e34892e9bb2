// Package schema turns the static record registry into DDL. It carries a
// minimal table/column model and dialect-parameterized builders for
// CREATE TABLE and the natural-key uniqueness index; backends supply the
// dialect (identifier quoting, placeholder style, type mapping, surrogate
// key syntax) and the builders stay backend-agnostic.
package schema

import (
	"fmt"
	"strings"

	"chartfold/internal/records"
)

// Dialect abstracts the SQL flavor differences between backends. Both the
// DDL builders here and the statement planner in the store depend on it.
type Dialect interface {
	// Name identifies the dialect, e.g. "sqlite".
	Name() string

	// Placeholder returns the 1-based bind placeholder: "?" for SQLite,
	// "$1", "$2", ... for Postgres.
	Placeholder(n int) string

	// QuoteIdent quotes a single identifier segment.
	QuoteIdent(id string) string

	// ColumnType maps a logical column kind ("text", "int", "bigint",
	// "real", "bool") onto the dialect's SQL type.
	ColumnType(kind string) string

	// SurrogateKey returns the full column definition for the auto-assigned
	// id column, including the column name.
	SurrogateKey() string
}

// TableDef is the DDL-side view of one table.
type TableDef struct {
	Name    string
	Columns []records.Column
	Key     []string
}

// FromSpec converts a registry entry into a table definition.
func FromSpec(t *records.TableSpec) TableDef {
	return TableDef{Name: t.Name, Columns: t.Columns(), Key: t.Key}
}

// CreateTableSQL emits CREATE TABLE IF NOT EXISTS for the table: surrogate
// id first, then the declared columns. Non-nullable columns get NOT NULL
// plus a zero-value default so additive column evolution never breaks old
// writers.
func CreateTableSQL(d Dialect, t TableDef) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("schema: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("schema: table %s has no columns", t.Name)
	}
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, d.SurrogateKey())
	for _, c := range t.Columns {
		typ := d.ColumnType(c.Kind)
		if typ == "" {
			return "", fmt.Errorf("schema: table %s column %s: unknown kind %q", t.Name, c.Name, c.Kind)
		}
		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL DEFAULT ")
			sb.WriteString(zeroDefault(c.Kind))
		}
		cols = append(cols, sb.String())
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		d.QuoteIdent(t.Name),
		strings.Join(cols, ",\n  "),
	), nil
}

// KeyIndexSQL emits the UNIQUE index that enforces natural-key identity
// structurally and doubles as the upsert conflict target.
func KeyIndexSQL(d Dialect, t TableDef) (string, error) {
	if len(t.Key) == 0 {
		return "", fmt.Errorf("schema: table %s has no natural key", t.Name)
	}
	quoted := make([]string, len(t.Key))
	for i, k := range t.Key {
		quoted[i] = d.QuoteIdent(k)
	}
	return fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s);",
		d.QuoteIdent(t.Name+"_natural_key"),
		d.QuoteIdent(t.Name),
		strings.Join(quoted, ", "),
	), nil
}

func zeroDefault(kind string) string {
	switch kind {
	case "text":
		return "''"
	case "bool":
		// FALSE parses on both backends; a bare 0 does not on Postgres.
		return "FALSE"
	default:
		return "0"
	}
}
