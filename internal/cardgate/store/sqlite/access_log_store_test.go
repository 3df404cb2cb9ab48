package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cardgate/internal/cardgate/store"
)

func TestAccessLogStore_AppendAndRecent(t *testing.T) {
	conn, writer := openTestDB(t)
	logs := NewAccessLogStore(conn, writer)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := logs.AppendEntry(ctx, store.AccessLogRecord{
			CardUID:   fmt.Sprintf("CARD%04d", i),
			UserName:  "Alice",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Granted:   i%2 == 0,
			Reason:    "Access granted for Alice.",
		})
		if err != nil {
			t.Fatalf("AppendEntry %d: %v", i, err)
		}
	}

	recs, err := logs.RecentEntries(ctx, 3)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recs))
	}
	for i, want := range []string{"CARD0004", "CARD0003", "CARD0002"} {
		if recs[i].CardUID != want {
			t.Errorf("entry %d = %s, want %s (newest first)", i, recs[i].CardUID, want)
		}
	}
	if !recs[0].Granted || recs[1].Granted {
		t.Errorf("granted flags round-tripped wrong: %+v", recs[:2])
	}
	if !recs[0].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("timestamp round-tripped wrong: %v", recs[0].Timestamp)
	}
}

func TestAccessLogStore_TiedTimestampsOrderByID(t *testing.T) {
	conn, writer := openTestDB(t)
	logs := NewAccessLogStore(conn, writer)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for _, uid := range []string{"FIRST001", "SECOND02"} {
		if err := logs.AppendEntry(ctx, store.AccessLogRecord{
			CardUID:   uid,
			UserName:  "Unknown",
			Timestamp: ts,
			Reason:    "Card not registered.",
		}); err != nil {
			t.Fatalf("AppendEntry: %v", err)
		}
	}

	recs, err := logs.RecentEntries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(recs) != 2 || recs[0].CardUID != "SECOND02" {
		t.Errorf("same-timestamp entries must order by insertion, got %+v", recs)
	}
}

func TestAccessLogStore_AssignsTimestamp(t *testing.T) {
	conn, writer := openTestDB(t)
	logs := NewAccessLogStore(conn, writer)
	ctx := context.Background()

	if err := logs.AppendEntry(ctx, store.AccessLogRecord{
		CardUID:  "AB12CD34",
		UserName: "Alice",
		Granted:  true,
		Reason:   "Access granted for Alice.",
	}); err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	recs, err := logs.RecentEntries(ctx, 1)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(recs) != 1 || recs[0].Timestamp.IsZero() {
		t.Errorf("append must stamp the entry, got %+v", recs)
	}
}

func TestAccessLogStore_EmptyRead(t *testing.T) {
	conn, writer := openTestDB(t)
	logs := NewAccessLogStore(conn, writer)

	recs, err := logs.RecentEntries(context.Background(), 50)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", recs)
	}
}
