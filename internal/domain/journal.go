package domain

import (
	"context"
	"time"
)

type JournalKind string

const (
	JournalReading    JournalKind = "reading"
	JournalConnection JournalKind = "connection"
	JournalAlert      JournalKind = "alert"
)

// JournalEntry is one row of the optional session history.
// Status is set for readings, State for connection events and
// Alerting for alert transitions.
type JournalEntry struct {
	ID       int64
	Kind     JournalKind
	Device   string
	Raw      string
	Status   DripStatus
	State    string
	Alerting bool
	Detail   string
	At       time.Time
}

type JournalRepository interface {
	Append(ctx context.Context, e JournalEntry) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]JournalEntry, error)
	Prune(ctx context.Context, keep int) (int64, error)
}
