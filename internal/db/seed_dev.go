package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sql.DB is passed directly rather than a Worker: seeding happens once
// at startup before the writer goroutine exists.

// SeedDev inserts a starter admin triple so a fresh dev database has a
// card that scans green.  Idempotent; never run in prod.
func SeedDev(ctx context.Context, conn *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	const devProfileID = "dev-admin-profile"

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO identities(id, email, created_at_ms)
VALUES (?, 'teste1@email.com', ?);`, devProfileID, now); err != nil {
		return fmt.Errorf("seed identity: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO profiles(id, display_name, created_at_ms)
VALUES (?, 'Dev Admin', ?);`, devProfileID, now); err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO cards(
  card_uid, owner_profile_id, access_level, authorized_doors,
  block1_data, block2_data, created_at_ms
) VALUES ('DEADBEEF', ?, 'Admin', '["All"]', 'New User Data', 'Role: Admin', ?);`,
		devProfileID, now); err != nil {
		return fmt.Errorf("seed card: %w", err)
	}

	return nil
}
