package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skobkin/dripmon/internal/domain"
)

// EventRepo implements domain.JournalRepository using SQLite.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Append(ctx context.Context, e domain.JournalEntry) (int64, error) {
	var status any
	if e.Kind == domain.JournalReading {
		status = string(e.Status.Kind)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO drip_events(kind, device, raw, status, rate, conn_state, alerting, detail, at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(e.Kind),
		e.Device,
		nullableString(e.Raw),
		status,
		nullableInt(e.Status.Rate, e.Status.HasRate),
		nullableString(e.State),
		boolToInt(e.Alerting),
		nullableString(e.Detail),
		toUnixMillis(e.At),
	)
	if err != nil {
		return 0, fmt.Errorf("insert drip event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get drip event id: %w", err)
	}

	return id, nil
}

// ListRecent returns up to limit events, newest first.
func (r *EventRepo) ListRecent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, device, raw, status, rate, conn_state, alerting, detail, at
		FROM drip_events
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list drip events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []domain.JournalEntry
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drip events: %w", err)
	}

	return out, nil
}

// Prune keeps the newest keep events and deletes the rest.
func (r *EventRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM drip_events
		WHERE id NOT IN (
			SELECT id FROM drip_events ORDER BY at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune drip events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned drip events: %w", err)
	}

	return deleted, nil
}

func (r *EventRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drip_events;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count drip events: %w", err)
	}

	return n, nil
}

func scanEvent(scanner interface {
	Scan(dest ...any) error
}) (domain.JournalEntry, error) {
	var (
		e         domain.JournalEntry
		kind      string
		raw       sql.NullString
		status    sql.NullString
		rate      sql.NullInt64
		connState sql.NullString
		alerting  int
		detail    sql.NullString
		atMs      int64
	)
	if err := scanner.Scan(&e.ID, &kind, &e.Device, &raw, &status, &rate, &connState, &alerting, &detail, &atMs); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("scan drip event: %w", err)
	}
	e.Kind = domain.JournalKind(kind)
	e.Raw = stringOrEmpty(raw)
	if status.Valid {
		e.Status.Kind = domain.DripKind(status.String)
	}
	if rate.Valid {
		e.Status.Rate = int(rate.Int64)
		e.Status.HasRate = true
	}
	e.State = stringOrEmpty(connState)
	e.Alerting = alerting != 0
	e.Detail = stringOrEmpty(detail)
	e.At = fromUnixMillis(atMs)

	return e, nil
}
