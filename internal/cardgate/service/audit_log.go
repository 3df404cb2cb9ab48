package service

import (
	"context"
	"log"
	"time"

	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/types"
	"cardgate/internal/metrics"
)

// MaxRecentEntries caps the audit read; requests for more are clamped.
const MaxRecentEntries = 50

// AuditLog is the append-only decision trail.  Appends assign the
// timestamp when the caller left it zero; reads degrade to an empty
// list so the dashboard shows "no data" instead of an error page.
type AuditLog struct {
	store   store.AccessLogStore
	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewAuditLog(st store.AccessLogStore, logger *log.Logger, m *metrics.Metrics) *AuditLog {
	return &AuditLog{store: st, logger: logger, metrics: m}
}

func (l *AuditLog) Append(ctx context.Context, entry types.AccessLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return l.store.AppendEntry(ctx, store.AccessLogRecord{
		CardUID:   entry.CardUID,
		UserName:  entry.UserName,
		Timestamp: entry.Timestamp,
		Granted:   entry.Status == types.StatusGranted,
		Reason:    entry.Reason,
	})
}

// Recent returns up to limit entries, newest first.  limit is clamped
// to [1, MaxRecentEntries].  A failing read returns an empty slice.
func (l *AuditLog) Recent(ctx context.Context, limit int) []types.AccessLogEntry {
	if limit <= 0 || limit > MaxRecentEntries {
		limit = MaxRecentEntries
	}

	recs, err := l.store.RecentEntries(ctx, limit)
	if err != nil {
		l.metrics.AuditReadFailed.Inc()
		l.logger.Printf("audit read error: %v", err)
		return []types.AccessLogEntry{}
	}

	out := make([]types.AccessLogEntry, 0, len(recs))
	for _, rec := range recs {
		status := types.StatusDenied
		if rec.Granted {
			status = types.StatusGranted
		}
		out = append(out, types.AccessLogEntry{
			ID:        rec.ID,
			CardUID:   rec.CardUID,
			UserName:  rec.UserName,
			Timestamp: rec.Timestamp,
			Status:    status,
			Reason:    rec.Reason,
		})
	}
	return out
}
