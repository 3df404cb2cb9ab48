package store

import (
	"context"
	"time"
)

// AccessLogRecord captures a single access decision for the audit log.
// Deny-path records may reference identifiers that were never
// registered; there is no foreign key to cards.
type AccessLogRecord struct {
	ID        int64
	CardUID   string
	UserName  string
	Timestamp time.Time
	Granted   bool
	Reason    string
}

// AccessLogStore persists access decisions as an append-only audit log.
// No update or delete operation exists.
type AccessLogStore interface {
	// AppendEntry inserts a record.  The store assigns the ID; callers
	// supply the timestamp.
	AppendEntry(ctx context.Context, rec AccessLogRecord) error

	// RecentEntries returns up to limit records, newest first.
	RecentEntries(ctx context.Context, limit int) ([]AccessLogRecord, error)
}
