package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/types"
	"cardgate/internal/metrics"
)

var (
	ErrInvalidDisplayName = errors.New("displayName is required")
	ErrInvalidAccessLevel = errors.New("accessLevel must be Admin, User, or Guest")
)

// Door sets are derived deterministically from the access level at
// registration time.
var (
	adminDoors   = []string{"All"}
	defaultDoors = []string{"Main-Entrance"}
)

// handleAttempts bounds how many count-derived email handles a single
// registration will try before giving up.
const handleAttempts = 5

// RegistrationService provisions the (identity, profile, card) triple.
// The backing store has no multi-table transaction, so each committed
// step pushes a compensating action; a later failure unwinds them in
// reverse before the error is returned.  The store's uniqueness
// constraint on the card identifier is the conflict arbiter: concurrent
// registrations of the same card get one winner and one
// ErrDuplicateCard loser.
type RegistrationService struct {
	identities store.IdentityStore
	profiles   store.ProfileStore
	cards      store.CardStore
	logger     *log.Logger
	metrics    *metrics.Metrics
}

func NewRegistrationService(
	identities store.IdentityStore,
	profiles store.ProfileStore,
	cards store.CardStore,
	logger *log.Logger,
	m *metrics.Metrics,
) *RegistrationService {
	return &RegistrationService{
		identities: identities,
		profiles:   profiles,
		cards:      cards,
		logger:     logger,
		metrics:    m,
	}
}

// Register runs the three-step provisioning sequence.  On success the
// triple is durably linked and visible to the permissions source on its
// next call.  On failure the store holds none of the three.
func (s *RegistrationService) Register(ctx context.Context, req types.RegistrationRequest) error {
	if err := s.register(ctx, req); err != nil {
		s.metrics.RegistrationsFail.Inc()
		return err
	}
	s.metrics.RegistrationsOK.Inc()
	return nil
}

func (s *RegistrationService) register(ctx context.Context, req types.RegistrationRequest) error {
	displayName := req.DisplayName
	if displayName == "" {
		return ErrInvalidDisplayName
	}
	cardUID := types.NormalizeIdentifier(req.CardUID)
	if cardUID == "" {
		return ErrInvalidCardUID
	}
	level, ok := types.ParseAccessLevel(req.AccessLevel)
	if !ok {
		return ErrInvalidAccessLevel
	}

	var undo compensationStack

	// Step 1: identity principal.  The synthetic email handle comes
	// from the profile sequence number; the principal exists only to
	// anchor the profile's foreign key.  Nothing to roll back on
	// failure here.
	seq, err := s.profiles.CountProfiles(ctx)
	if err != nil {
		return fmt.Errorf("registration: next principal handle: %w", err)
	}
	identity := store.IdentityRecord{ID: uuid.NewString()}
	for attempt := int64(0); ; attempt++ {
		identity.Email = fmt.Sprintf("teste%d@email.com", seq+1+attempt)
		err := s.identities.CreateIdentity(ctx, identity)
		if err == nil {
			break
		}
		// The count is read outside the write worker, so a concurrent
		// registration can claim the same handle first; step to the
		// next one.
		if errors.Is(err, store.ErrDuplicateEmail) && attempt < handleAttempts-1 {
			continue
		}
		return fmt.Errorf("registration: create identity: %w", err)
	}
	undo.push("delete identity", func(ctx context.Context) error {
		return s.identities.DeleteIdentity(ctx, identity.ID)
	})

	// Step 2: profile, sharing the identity's id.
	profile := store.ProfileRecord{ID: identity.ID, DisplayName: displayName}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		undo.unwind(ctx, s.logger)
		return fmt.Errorf("registration: create profile: %w", err)
	}
	undo.push("delete profile", func(ctx context.Context) error {
		return s.profiles.DeleteProfile(ctx, profile.ID)
	})

	// Step 3: the card itself.  A duplicate identifier fails here on
	// the uniqueness constraint and surfaces verbatim after rollback.
	card := store.CardRecord{
		CardUID:         cardUID,
		OwnerProfileID:  profile.ID,
		AccessLevel:     level,
		AuthorizedDoors: doorsFor(level),
		Block1Data:      "New User Data",
		Block2Data:      fmt.Sprintf("Role: %s", level),
	}
	if err := s.cards.CreateCard(ctx, card); err != nil {
		undo.unwind(ctx, s.logger)
		return fmt.Errorf("registration: create card: %w", err)
	}

	return nil
}

func doorsFor(level types.AccessLevel) []string {
	if level == types.AccessLevelAdmin {
		return adminDoors
	}
	return defaultDoors
}

// compensationStack records undo actions for committed steps.  unwind
// runs them newest-first; an undo that itself fails is logged and the
// unwind continues, since later actions may still succeed.
type compensationStack struct {
	actions []compensation
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

func (c *compensationStack) push(name string, fn func(ctx context.Context) error) {
	c.actions = append(c.actions, compensation{name: name, fn: fn})
}

func (c *compensationStack) unwind(ctx context.Context, logger *log.Logger) {
	// Rollback must complete even when the step failure was the caller
	// abandoning the request, or the store keeps a partial triple.
	ctx = context.WithoutCancel(ctx)
	for i := len(c.actions) - 1; i >= 0; i-- {
		a := c.actions[i]
		if err := a.fn(ctx); err != nil {
			logger.Printf("rollback %s: %v", a.name, err)
		}
	}
	c.actions = nil
}
