package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "cardgate/internal/db"

	"cardgate/internal/cardgate/store"
)

type ProfileStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewProfileStore(conn *sql.DB, writer *dbpkg.Worker) *ProfileStore {
	return &ProfileStore{db: conn, writer: writer}
}

func (s *ProfileStore) CreateProfile(ctx context.Context, rec store.ProfileRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO profiles(id, display_name, created_at_ms) VALUES (?, ?, ?);
`, rec.ID, rec.DisplayName, rec.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("CreateProfile insert: %w", err)
		}
		return nil
	})
}

func (s *ProfileStore) DeleteProfile(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM profiles WHERE id = ?;`, id); err != nil {
			return fmt.Errorf("DeleteProfile: %w", err)
		}
		return nil
	})
}

func (s *ProfileStore) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountProfiles: %w", err)
	}
	return n, nil
}
