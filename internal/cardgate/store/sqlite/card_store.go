package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	dbpkg "cardgate/internal/db"

	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/types"
)

type CardStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewCardStore(conn *sql.DB, writer *dbpkg.Worker) *CardStore {
	return &CardStore{db: conn, writer: writer}
}

func (s *CardStore) CreateCard(ctx context.Context, rec store.CardRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	doors, err := json.Marshal(rec.AuthorizedDoors)
	if err != nil {
		return fmt.Errorf("CreateCard marshal doors: %w", err)
	}

	// Unowned cards store NULL, not "": owner_profile_id carries a
	// foreign key.
	var owner any
	if rec.OwnerProfileID != "" {
		owner = rec.OwnerProfileID
	}

	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO cards(
  card_uid, owner_profile_id, access_level, authorized_doors,
  block1_data, block2_data, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			rec.CardUID, owner, string(rec.AccessLevel), string(doors),
			rec.Block1Data, rec.Block2Data, rec.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("CreateCard insert: %w", err)
		}
		return nil
	})
	if isUniqueViolation(err) {
		return store.ErrDuplicateCard
	}
	return err
}

func (s *CardStore) FindByUID(ctx context.Context, cardUID string) (store.CardRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT c.id, c.card_uid, COALESCE(c.owner_profile_id, ''),
       COALESCE(p.display_name, ''),
       c.access_level, c.authorized_doors,
       c.block1_data, c.block2_data, c.created_at_ms
FROM cards c
LEFT JOIN profiles p ON p.id = c.owner_profile_id
WHERE c.card_uid = ?;
`, cardUID)

	rec, err := scanCard(row)
	if err == sql.ErrNoRows {
		return store.CardRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.CardRecord{}, fmt.Errorf("FindByUID: %w", err)
	}
	return rec, nil
}

func (s *CardStore) ListWithOwners(ctx context.Context) ([]store.CardRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.card_uid, COALESCE(c.owner_profile_id, ''),
       COALESCE(p.display_name, ''),
       c.access_level, c.authorized_doors,
       c.block1_data, c.block2_data, c.created_at_ms
FROM cards c
LEFT JOIN profiles p ON p.id = c.owner_profile_id
ORDER BY c.id;
`)
	if err != nil {
		return nil, fmt.Errorf("ListWithOwners query: %w", err)
	}
	defer rows.Close()

	out := []store.CardRecord{}
	for rows.Next() {
		rec, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("ListWithOwners scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWithOwners rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(r rowScanner) (store.CardRecord, error) {
	var (
		rec       store.CardRecord
		level     string
		doorsJSON string
		createdMs int64
	)
	if err := r.Scan(
		&rec.ID, &rec.CardUID, &rec.OwnerProfileID, &rec.OwnerName,
		&level, &doorsJSON, &rec.Block1Data, &rec.Block2Data, &createdMs,
	); err != nil {
		return store.CardRecord{}, err
	}

	rec.AccessLevel = types.AccessLevel(level)
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	if err := json.Unmarshal([]byte(doorsJSON), &rec.AuthorizedDoors); err != nil {
		return store.CardRecord{}, fmt.Errorf("decode authorized_doors: %w", err)
	}
	return rec, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE (or primary
// key) constraint failure.
func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	default:
		return false
	}
}
