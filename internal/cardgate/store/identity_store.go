package store

import (
	"context"
	"time"
)

// IdentityRecord is an authentication principal.  It exists only to
// anchor the profile's foreign key; it has no domain lifecycle of its
// own beyond creation at registration and deletion on rollback.
type IdentityRecord struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

type IdentityStore interface {
	CreateIdentity(ctx context.Context, rec IdentityRecord) error

	// DeleteIdentity removes a principal.  Used only by registration
	// rollback; deleting a missing identity is not an error.
	DeleteIdentity(ctx context.Context, id string) error
}
