// Package postgres registers the Postgres backend with the store factory,
// using pgx v5 through its database/sql adapter so the engine's statement
// plans run unchanged. The single-writer model still applies; Postgres
// buys durability and remote access, not concurrent ingestion.
package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"chartfold/internal/schema"
	"chartfold/internal/store"
)

type dialect struct{}

var _ schema.Dialect = dialect{}

func (dialect) Name() string { return "postgres" }

func (dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (dialect) ColumnType(kind string) string {
	switch kind {
	case "text":
		return "TEXT"
	case "int", "bigint":
		return "BIGINT"
	case "real":
		return "DOUBLE PRECISION"
	case "bool":
		return "BOOLEAN"
	default:
		return ""
	}
}

func (dialect) SurrogateKey() string {
	return `"id" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY`
}

func open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return db, nil
}

func init() {
	store.Register("postgres", store.Driver{Dialect: dialect{}, Open: open})
}
