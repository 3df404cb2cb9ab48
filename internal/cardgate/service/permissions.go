package service

import (
	"context"
	"fmt"
	"strings"

	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/types"
)

// Permissions is the read-only source of the flattened permissions
// snapshot.  No caching: every call reflects the latest committed
// registration.
type Permissions struct {
	cards store.CardStore
}

func NewPermissions(cards store.CardStore) *Permissions {
	return &Permissions{cards: cards}
}

// List returns every card joined with its owner's display name.  An
// empty store yields an empty slice; a store failure is an error so the
// caller can fail closed.
func (p *Permissions) List(ctx context.Context) ([]types.Permission, error) {
	recs, err := p.cards.ListWithOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	out := make([]types.Permission, 0, len(recs))
	for _, rec := range recs {
		name := rec.OwnerName
		if name == "" {
			name = "Unknown User"
		}
		out = append(out, types.Permission{
			Identifier:      rec.CardUID,
			DisplayName:     name,
			AccessLevel:     rec.AccessLevel,
			AuthorizedDoors: rec.AuthorizedDoors,
		})
	}
	return out, nil
}

// FormatTable renders a snapshot as the plain-text permissions table
// handed to the reasoning engine.
func FormatTable(perms []types.Permission) string {
	var b strings.Builder
	b.WriteString("Card UID | User | Access Level | Authorized Doors\n")
	for _, p := range perms {
		fmt.Fprintf(&b, "%s | %s | %s | %s\n",
			p.Identifier, p.DisplayName, p.AccessLevel, strings.Join(p.AuthorizedDoors, ", "))
	}
	return b.String()
}
