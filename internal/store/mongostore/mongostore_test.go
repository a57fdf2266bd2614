package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

// newStore connects to JAOTHUI_TEST_MONGO_URI and uses a throwaway database.
func newStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("JAOTHUI_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("JAOTHUI_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, uri, "jaothui_test_"+uuid.NewString()[:8], false)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})
	return s
}

func TestMongoStore_ReminderLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	today := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	owner := models.Profile{ID: "p-1", ExternalUserID: "ext-1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.UpsertProfile(ctx, &owner))
	farm := models.Farm{ID: "f-1", OwnerID: owner.ID, FarmName: "Farm", FarmCode: "FM1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateFarm(ctx, &farm))
	animal := models.Animal{ID: "an-1", FarmID: farm.ID, AnimalID: "BF20250110001", AnimalType: models.AnimalTypeBuffalo, Name: "Tong", Status: models.AnimalStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateAnimal(ctx, &animal))

	dup := animal
	dup.ID = "an-2"
	assert.ErrorIs(t, s.CreateAnimal(ctx, &dup), store.ErrDuplicate)

	act := models.Activity{ID: "a-1", FarmID: farm.ID, AnimalID: animal.ID, Title: "Vaccinate", ActivityDate: today, ReminderDate: &today, Status: models.ActivityPending, CreatedBy: owner.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateActivity(ctx, &act))
	r := models.ActivityReminder{ID: "r-1", ActivityID: act.ID, FarmID: farm.ID, ReminderDate: today, CreatedAt: now}
	require.NoError(t, s.UpsertReminder(ctx, &r))

	due, err := s.ListDueReminders(ctx, today, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Tong", due[0].Animal.Name)
	assert.Equal(t, owner.ID, due[0].Farm.OwnerID)

	require.NoError(t, s.MarkReminderSent(ctx, r.ID, now))
	due, err = s.ListDueReminders(ctx, today, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, due)

	again := models.ActivityReminder{ID: "r-new", ActivityID: act.ID, FarmID: farm.ID, ReminderDate: today, CreatedAt: now}
	require.NoError(t, s.UpsertReminder(ctx, &again))
	assert.Equal(t, "r-1", again.ID)
	assert.False(t, again.NotificationSent)
}
