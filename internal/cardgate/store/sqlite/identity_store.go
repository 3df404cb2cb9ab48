package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "cardgate/internal/db"

	"cardgate/internal/cardgate/store"
)

type IdentityStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewIdentityStore(conn *sql.DB, writer *dbpkg.Worker) *IdentityStore {
	return &IdentityStore{db: conn, writer: writer}
}

func (s *IdentityStore) CreateIdentity(ctx context.Context, rec store.IdentityRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO identities(id, email, created_at_ms) VALUES (?, ?, ?);
`, rec.ID, rec.Email, rec.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("CreateIdentity insert: %w", err)
		}
		return nil
	})
	if isUniqueViolation(err) {
		return store.ErrDuplicateEmail
	}
	return err
}

func (s *IdentityStore) DeleteIdentity(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM identities WHERE id = ?;`, id); err != nil {
			return fmt.Errorf("DeleteIdentity: %w", err)
		}
		return nil
	})
}
