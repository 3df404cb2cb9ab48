package store

import (
	"context"
	"time"
)

// ProfileRecord is the display-facing half of a registered person.
// Its ID doubles as the identity principal's ID.
type ProfileRecord struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, rec ProfileRecord) error

	// DeleteProfile removes a profile row.  Used only by registration
	// rollback; deleting a missing profile is not an error.
	DeleteProfile(ctx context.Context, id string) error

	// CountProfiles returns the number of profiles.  Registration uses
	// it to derive the next synthetic principal handle.
	CountProfiles(ctx context.Context) (int64, error)
}
