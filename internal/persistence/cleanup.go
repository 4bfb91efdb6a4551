package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearEvents deletes every journal row and restarts the id sequence.
// It returns the number of deleted rows.
func ClearEvents(ctx context.Context, db *sql.DB) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database is not initialized")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin clear events tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	//goland:noinspection SqlWithoutWhere
	res, err := tx.ExecContext(ctx, `DELETE FROM drip_events;`)
	if err != nil {
		return 0, fmt.Errorf("delete drip events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted drip events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'drip_events';`); err != nil {
		return 0, fmt.Errorf("reset drip event ids: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear events tx: %w", err)
	}

	return deleted, nil
}
