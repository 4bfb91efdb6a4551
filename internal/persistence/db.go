package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

// pragmas run on every open. The journal is append-mostly and a lost last
// write on power failure is acceptable, hence synchronous=NORMAL.
var pragmas = []struct {
	name string
	stmt string
}{
	{name: "busy timeout", stmt: `PRAGMA busy_timeout = 5000;`},
	{name: "wal mode", stmt: `PRAGMA journal_mode = WAL;`},
	{name: "synchronous", stmt: `PRAGMA synchronous = NORMAL;`},
}

// Open opens (creating if needed) the journal database at path and brings
// its schema up to date.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writer queue jobs and history reads.
	db.SetMaxOpenConns(1)

	if err := prepare(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.stmt); err != nil {
			return fmt.Errorf("set %s: %w", p.name, err)
		}
	}

	return migrate(ctx, db)
}
