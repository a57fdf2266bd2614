package testutil

import (
	"context"
	"testing"
	"time"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store/sqlstore"
)

// NewTestStore creates an in-memory SQLite store with all migrations applied.
// It is closed when the test completes.
func NewTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.Open(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

// Farm is a seeded owner, farm and animal.
type Farm struct {
	Owner  models.Profile
	Farm   models.Farm
	Animal models.Animal
}

// SeedFarm creates a profile owning one farm (with OWNER membership) holding one buffalo.
// suffix keeps ids and unique columns distinct across calls.
func SeedFarm(t *testing.T, s *sqlstore.Store, suffix string, at time.Time) Farm {
	t.Helper()
	ctx := context.Background()

	owner := models.Profile{
		ID: "profile-" + suffix, ExternalUserID: "ext-" + suffix, FirstName: "Owner " + suffix,
		CreatedAt: at, UpdatedAt: at,
	}
	if err := s.UpsertProfile(ctx, &owner); err != nil {
		t.Fatalf("seeding profile: %v", err)
	}

	farm := models.Farm{
		ID: "farm-" + suffix, OwnerID: owner.ID, FarmName: "Farm " + suffix, Province: "Chiang Mai",
		FarmCode: "FM-" + suffix, CreatedAt: at, UpdatedAt: at,
	}
	if err := s.CreateFarm(ctx, &farm); err != nil {
		t.Fatalf("seeding farm: %v", err)
	}
	if err := s.AddFarmMember(ctx, &models.FarmMember{
		ID: "member-" + suffix, FarmID: farm.ID, UserID: owner.ID, Role: models.RoleOwner, CreatedAt: at,
	}); err != nil {
		t.Fatalf("seeding membership: %v", err)
	}

	animal := models.Animal{
		ID: "animal-" + suffix, FarmID: farm.ID, AnimalID: "BF20250110001", AnimalType: models.AnimalTypeBuffalo,
		Name: "Tong " + suffix, Status: models.AnimalStatusActive, CreatedAt: at, UpdatedAt: at,
	}
	if err := s.CreateAnimal(ctx, &animal); err != nil {
		t.Fatalf("seeding animal: %v", err)
	}

	return Farm{Owner: owner, Farm: farm, Animal: animal}
}

// SeedSubscription registers an active push endpoint for userID.
func SeedSubscription(t *testing.T, s *sqlstore.Store, id, userID, endpoint string, at time.Time) models.PushSubscription {
	t.Helper()
	sub := models.PushSubscription{
		ID: id, UserID: userID, Endpoint: endpoint, P256dh: "p256dh-" + id, Auth: "auth-" + id,
		IsActive: true, CreatedAt: at,
	}
	if err := s.UpsertSubscription(context.Background(), &sub); err != nil {
		t.Fatalf("seeding subscription: %v", err)
	}
	return sub
}
