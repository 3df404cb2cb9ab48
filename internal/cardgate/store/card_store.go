package store

import (
	"context"
	"time"

	"cardgate/internal/cardgate/types"
)

// CardRecord is a provisioned card.  OwnerName is populated on reads by
// joining the owning profile; it is ignored on writes.
type CardRecord struct {
	ID              int64
	CardUID         string
	OwnerProfileID  string
	OwnerName       string
	AccessLevel     types.AccessLevel
	AuthorizedDoors []string
	Block1Data      string
	Block2Data      string
	CreatedAt       time.Time
}

// CardStore persists cards.  Cards are created by registration, read by
// the decision path, and never mutated.
type CardStore interface {
	// CreateCard inserts a new card row.  Returns ErrDuplicateCard when
	// the identifier is already registered.
	CreateCard(ctx context.Context, rec CardRecord) error

	// FindByUID looks up a card by its normalized identifier, joined
	// with the owner's display name.  Returns ErrNotFound on a miss.
	FindByUID(ctx context.Context, cardUID string) (CardRecord, error)

	// ListWithOwners returns every card joined with its owner's display
	// name.  An empty store yields an empty slice, not an error.
	ListWithOwners(ctx context.Context) ([]CardRecord, error)
}
