package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "cardgate/internal/db"

	"cardgate/internal/cardgate/store"
)

type AccessLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessLogStore(conn *sql.DB, writer *dbpkg.Worker) *AccessLogStore {
	return &AccessLogStore{db: conn, writer: writer}
}

func (s *AccessLogStore) AppendEntry(ctx context.Context, rec store.AccessLogRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	status := statusText(rec.Granted)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_logs(card_uid, user_name, timestamp_ms, status, reason)
VALUES (?, ?, ?, ?, ?);
`, rec.CardUID, rec.UserName, rec.Timestamp.UTC().UnixMilli(), status, rec.Reason); err != nil {
			return fmt.Errorf("AppendEntry insert: %w", err)
		}
		return nil
	})
}

func (s *AccessLogStore) RecentEntries(ctx context.Context, limit int) ([]store.AccessLogRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, card_uid, user_name, timestamp_ms, status, reason
FROM access_logs
ORDER BY timestamp_ms DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentEntries query: %w", err)
	}
	defer rows.Close()

	out := []store.AccessLogRecord{}
	for rows.Next() {
		var (
			rec    store.AccessLogRecord
			tsMs   int64
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.CardUID, &rec.UserName, &tsMs, &status, &rec.Reason); err != nil {
			return nil, fmt.Errorf("RecentEntries scan: %w", err)
		}
		rec.Timestamp = time.UnixMilli(tsMs).UTC()
		rec.Granted = status == "Granted"
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentEntries rows: %w", err)
	}
	return out, nil
}

func statusText(granted bool) string {
	if granted {
		return "Granted"
	}
	return "Denied"
}
