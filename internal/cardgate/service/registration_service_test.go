package service_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"cardgate/internal/cardgate/service"
	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/store/memory"
	"cardgate/internal/cardgate/types"
	"cardgate/internal/metrics"
)

func newTestRegistration(t *testing.T) (*service.RegistrationService, *testEnv) {
	t.Helper()

	env := &testEnv{
		identities: memory.NewIdentityStore(),
		profiles:   memory.NewProfileStore(),
		audit:      memory.NewAccessLogStore(),
	}
	env.cards = memory.NewCardStore(env.profiles)

	logger := log.New(io.Discard, "", 0)
	m := metrics.New(prometheus.NewRegistry())
	svc := service.NewRegistrationService(env.identities, env.profiles, env.cards, logger, m)
	return svc, env
}

func TestRegister_RoundTrip(t *testing.T) {
	svc, env := newTestRegistration(t)
	ctx := context.Background()

	err := svc.Register(ctx, types.RegistrationRequest{
		DisplayName: "Alice",
		CardUID:     "a1b2c3d4",
		AccessLevel: "User",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	card, err := env.cards.FindByUID(ctx, "A1B2C3D4")
	if err != nil {
		t.Fatalf("FindByUID after register: %v", err)
	}
	if card.OwnerName != "Alice" {
		t.Errorf("expected owner Alice, got %q", card.OwnerName)
	}
	if card.AccessLevel != types.AccessLevelUser {
		t.Errorf("expected level User, got %v", card.AccessLevel)
	}
	if len(card.AuthorizedDoors) != 1 || card.AuthorizedDoors[0] != "Main-Entrance" {
		t.Errorf("expected doors [Main-Entrance], got %v", card.AuthorizedDoors)
	}
	if card.Block1Data != "New User Data" {
		t.Errorf("unexpected block1 %q", card.Block1Data)
	}
	if card.Block2Data != "Role: User" {
		t.Errorf("unexpected block2 %q", card.Block2Data)
	}

	ids := env.identities.Identities()
	if len(ids) != 1 {
		t.Fatalf("expected 1 identity principal, got %d", len(ids))
	}
	if ids[0].Email != "teste1@email.com" {
		t.Errorf("expected synthetic handle teste1@email.com, got %q", ids[0].Email)
	}
	if ids[0].ID != card.OwnerProfileID {
		t.Error("profile and identity must share an id")
	}
}

func TestRegister_AdminGetsAllDoors(t *testing.T) {
	svc, env := newTestRegistration(t)
	ctx := context.Background()

	if err := svc.Register(ctx, types.RegistrationRequest{
		DisplayName: "Bob",
		CardUID:     "DEADBEE5",
		AccessLevel: "admin", // level parse is case-insensitive
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	card, err := env.cards.FindByUID(ctx, "DEADBEE5")
	if err != nil {
		t.Fatalf("FindByUID: %v", err)
	}
	if len(card.AuthorizedDoors) != 1 || card.AuthorizedDoors[0] != "All" {
		t.Errorf("expected doors [All], got %v", card.AuthorizedDoors)
	}
	if card.Block2Data != "Role: Admin" {
		t.Errorf("unexpected block2 %q", card.Block2Data)
	}
}

func TestRegister_SyntheticHandleSequence(t *testing.T) {
	svc, env := newTestRegistration(t)
	ctx := context.Background()

	for i, uid := range []string{"AAAA0001", "AAAA0002", "AAAA0003"} {
		if err := svc.Register(ctx, types.RegistrationRequest{
			DisplayName: "User",
			CardUID:     uid,
			AccessLevel: "Guest",
		}); err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
	}

	got := map[string]bool{}
	for _, id := range env.identities.Identities() {
		got[id.Email] = true
	}
	for _, want := range []string{"teste1@email.com", "teste2@email.com", "teste3@email.com"} {
		if !got[want] {
			t.Errorf("missing synthetic handle %s in %v", want, got)
		}
	}
}

func TestRegister_DuplicateCard_RollsBack(t *testing.T) {
	svc, env := newTestRegistration(t)
	ctx := context.Background()

	if err := svc.Register(ctx, types.RegistrationRequest{
		DisplayName: "Alice", CardUID: "A1B2C3D4", AccessLevel: "User",
	}); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	err := svc.Register(ctx, types.RegistrationRequest{
		DisplayName: "Mallory", CardUID: " a1b2c3d4 ", AccessLevel: "Admin",
	})
	if !errors.Is(err, store.ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard, got %v", err)
	}

	// The loser's identity and profile must be unwound.
	if ids := env.identities.Identities(); len(ids) != 1 {
		t.Errorf("expected rollback to leave 1 identity, got %d", len(ids))
	}
	if n, _ := env.profiles.CountProfiles(ctx); n != 1 {
		t.Errorf("expected rollback to leave 1 profile, got %d", n)
	}

	// The winner's card is untouched.
	card, err := env.cards.FindByUID(ctx, "A1B2C3D4")
	if err != nil {
		t.Fatalf("FindByUID: %v", err)
	}
	if card.OwnerName != "Alice" {
		t.Errorf("winner's card was disturbed: owner %q", card.OwnerName)
	}
}

// failingProfileStore rejects creates while delegating the rest.
type failingProfileStore struct {
	*memory.ProfileStore
}

func (f failingProfileStore) CreateProfile(context.Context, store.ProfileRecord) error {
	return errors.New("profile table unavailable")
}

func TestRegister_ProfileFailure_DeletesIdentity(t *testing.T) {
	_, env := newTestRegistration(t)

	logger := log.New(io.Discard, "", 0)
	m := metrics.New(prometheus.NewRegistry())
	svc := service.NewRegistrationService(env.identities,
		failingProfileStore{env.profiles}, env.cards, logger, m)

	err := svc.Register(context.Background(), types.RegistrationRequest{
		DisplayName: "Alice", CardUID: "A1B2C3D4", AccessLevel: "User",
	})
	if err == nil {
		t.Fatal("expected an error when the profile step fails")
	}
	if !strings.Contains(err.Error(), "create profile") {
		t.Errorf("error should name the failed step, got %v", err)
	}

	if ids := env.identities.Identities(); len(ids) != 0 {
		t.Errorf("expected identity rollback, found %d principals", len(ids))
	}
	if _, err := env.cards.FindByUID(context.Background(), "A1B2C3D4"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("no card should exist after a failed registration, got %v", err)
	}
}

// ctxGuardedProfiles and ctxGuardedIdentities refuse work once the
// request context is done, like the sqlite write worker does.
type ctxGuardedProfiles struct {
	*memory.ProfileStore
}

func (g ctxGuardedProfiles) DeleteProfile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.ProfileStore.DeleteProfile(ctx, id)
}

type ctxGuardedIdentities struct {
	*memory.IdentityStore
}

func (g ctxGuardedIdentities) DeleteIdentity(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.IdentityStore.DeleteIdentity(ctx, id)
}

func TestRegister_RollbackSurvivesAbandonedRequest(t *testing.T) {
	_, env := newTestRegistration(t)

	logger := log.New(io.Discard, "", 0)
	m := metrics.New(prometheus.NewRegistry())
	svc := service.NewRegistrationService(
		ctxGuardedIdentities{env.identities},
		ctxGuardedProfiles{env.profiles},
		env.cards, logger, m)

	// The seeded card makes the final step fail after the first two
	// committed.
	env.seedCard(t, "A1B2C3D4", "Alice", types.AccessLevelUser)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Register(ctx, types.RegistrationRequest{
		DisplayName: "Mallory", CardUID: "A1B2C3D4", AccessLevel: "User",
	})
	if !errors.Is(err, store.ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard, got %v", err)
	}

	// Rollback runs detached from the dead request context, so the
	// loser's identity and profile are gone.
	if ids := env.identities.Identities(); len(ids) != 0 {
		t.Errorf("expected no identities after rollback, found %d", len(ids))
	}
	if n, _ := env.profiles.CountProfiles(context.Background()); n != 1 {
		t.Errorf("expected only the seeded profile, got %d", n)
	}
}

func TestRegister_HandleCollisionRetries(t *testing.T) {
	svc, env := newTestRegistration(t)
	ctx := context.Background()

	// A concurrent registration already claimed the count-derived
	// handle; the next attempt must step past it.
	if err := env.identities.CreateIdentity(ctx, store.IdentityRecord{
		ID:    "concurrent-winner",
		Email: "teste1@email.com",
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	if err := svc.Register(ctx, types.RegistrationRequest{
		DisplayName: "Alice", CardUID: "A1B2C3D4", AccessLevel: "User",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := env.cards.FindByUID(ctx, "A1B2C3D4"); err != nil {
		t.Fatalf("card missing after register: %v", err)
	}

	got := map[string]bool{}
	for _, id := range env.identities.Identities() {
		got[id.Email] = true
	}
	if !got["teste2@email.com"] {
		t.Errorf("expected the next free handle teste2@email.com, have %v", got)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	svc, env := newTestRegistration(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  types.RegistrationRequest
		want error
	}{
		{"missing display name", types.RegistrationRequest{CardUID: "A1B2C3D4", AccessLevel: "User"}, service.ErrInvalidDisplayName},
		{"blank card uid", types.RegistrationRequest{DisplayName: "Alice", CardUID: "   ", AccessLevel: "User"}, service.ErrInvalidCardUID},
		{"bogus access level", types.RegistrationRequest{DisplayName: "Alice", CardUID: "A1B2C3D4", AccessLevel: "Root"}, service.ErrInvalidAccessLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Register(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if ids := env.identities.Identities(); len(ids) != 0 {
		t.Errorf("validation failures must not create principals, found %d", len(ids))
	}
}
