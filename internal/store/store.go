// Package store is the chartfold storage engine: one relational database
// holding every canonical table plus the append-only load log, written to
// by exactly one process at a time.
//
// Backends (SQLite, Postgres) register themselves into a small factory by
// kind, mirroring how the rest of the project keeps backend-specific code
// behind blank imports; callers open a Store by kind and DSN and never
// touch driver packages directly.
//
// The engine's one write entry point is LoadSource: an all-or-nothing,
// natural-key-upsert load of a single batch. Everything else is read-only.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"chartfold/internal/records"
	"chartfold/internal/schema"
)

// ErrUnknownKind is returned by Open for an unregistered backend kind.
var ErrUnknownKind = fmt.Errorf("store: unknown backend kind")

// Driver couples a dialect with the function that opens its database
// handle (applying driver-specific setup such as pragmas).
type Driver struct {
	Dialect schema.Dialect
	Open    func(dsn string) (*sql.DB, error)
}

var (
	driversMu sync.RWMutex
	drivers   = map[string]Driver{}
)

// Register installs a backend driver under the given kind. It is called
// from backend packages' init functions; importing chartfold/internal/store/all
// registers every built-in backend.
func Register(kind string, d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[kind] = d
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	out := make([]string, 0, len(drivers))
	for k := range drivers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Store is a handle on one chartfold database.
type Store struct {
	db    *sql.DB
	d     schema.Dialect
	plans map[string]*tablePlan
}

// Open connects to the database selected by kind + DSN and prepares the
// per-table statement plans. The record registry is re-checked here so a
// misdeclared table surfaces at startup, not mid-load.
func Open(ctx context.Context, kind, dsn string) (*Store, error) {
	if err := records.CheckRegistry(); err != nil {
		return nil, err
	}
	driversMu.RLock()
	drv, ok := drivers[kind]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownKind, kind, Kinds())
	}
	db, err := drv.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", kind, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", kind, err)
	}
	s := &Store{db: db, d: drv.Dialect, plans: map[string]*tablePlan{}}
	for i := range records.Tables {
		t := &records.Tables[i]
		p, err := planTable(drv.Dialect, t)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.plans[t.Name] = p
	}
	return s, nil
}

// InitSchema creates every canonical table, its natural-key uniqueness
// index, and the load log. All statements are IF NOT EXISTS; calling it on
// an existing store is a no-op.
func (s *Store) InitSchema(ctx context.Context) error {
	for i := range records.Tables {
		t := &records.Tables[i]
		def := schema.FromSpec(t)
		create, err := schema.CreateTableSQL(s.d, def)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("store: create table %s: %w", t.Name, err)
		}
		index, err := schema.KeyIndexSQL(s.d, def)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("store: create index for %s: %w", t.Name, err)
		}
	}
	return s.initLoadLog(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
