package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	dbpkg "cardgate/internal/db"

	"cardgate/internal/cardgate/store"
)

// openTestDB opens a per-test in-memory database with the full schema
// applied and a write worker attached.  The shared-cache DSN keeps the
// database alive for the lifetime of the single pooled connection.
func openTestDB(t *testing.T) (*sql.DB, *dbpkg.Worker) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := dbpkg.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	writer := dbpkg.NewWorker(conn)
	t.Cleanup(func() {
		writer.Close()
		conn.Close()
	})
	return conn, writer
}

// seedOwner creates a linked identity and profile and returns the
// shared id.
func seedOwner(t *testing.T, conn *sql.DB, writer *dbpkg.Worker, displayName string) string {
	t.Helper()
	ctx := context.Background()

	id := uuid.NewString()
	identities := NewIdentityStore(conn, writer)
	if err := identities.CreateIdentity(ctx, store.IdentityRecord{
		ID:    id,
		Email: id + "@example.test",
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	profiles := NewProfileStore(conn, writer)
	if err := profiles.CreateProfile(ctx, store.ProfileRecord{
		ID:          id,
		DisplayName: displayName,
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return id
}
