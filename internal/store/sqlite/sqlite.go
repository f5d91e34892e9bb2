// Package sqlite registers the SQLite backend with the store factory.
// SQLite is the default backend: one file, zero infrastructure, and a
// transactional model that matches the engine's single-writer design.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go sqlite driver

	"chartfold/internal/schema"
	"chartfold/internal/store"
)

type dialect struct{}

var _ schema.Dialect = dialect{}

func (dialect) Name() string { return "sqlite" }

func (dialect) Placeholder(int) string { return "?" }

func (dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (dialect) ColumnType(kind string) string {
	switch kind {
	case "text":
		return "TEXT"
	case "int", "bigint":
		return "INTEGER"
	case "real":
		return "REAL"
	case "bool":
		return "INTEGER" // 0/1
	default:
		return ""
	}
}

// SurrogateKey uses AUTOINCREMENT deliberately: rowid reuse after deletes
// would break the promise that a pruned row's id never resurfaces under a
// different natural key.
func (dialect) SurrogateKey() string {
	return `"id" INTEGER PRIMARY KEY AUTOINCREMENT`
}

func open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; concurrent readers via WAL.
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA foreign_keys = ON;")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	return db, nil
}

func init() {
	store.Register("sqlite", store.Driver{Dialect: dialect{}, Open: open})
}
