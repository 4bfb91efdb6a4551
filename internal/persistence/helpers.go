package persistence

import (
	"database/sql"
	"time"
)

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v int, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func stringOrEmpty(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

// Event times are stored as unix milliseconds; 0 means unknown.
func toUnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
