package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

var now = time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

type fixture struct {
	owner  models.Profile
	farm   models.Farm
	animal models.Animal
}

func seed(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()

	owner := models.Profile{ID: "p-owner", ExternalUserID: "ext-owner", FirstName: "Somchai", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.UpsertProfile(ctx, &owner))

	farm := models.Farm{ID: "f-1", OwnerID: owner.ID, FarmName: "Farm", Province: "Chiang Mai", FarmCode: "FM1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateFarm(ctx, &farm))

	animal := models.Animal{
		ID: "an-1", FarmID: farm.ID, AnimalID: "BF20250110001", AnimalType: models.AnimalTypeBuffalo,
		Name: "Tong", Status: models.AnimalStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateAnimal(ctx, &animal))

	return fixture{owner: owner, farm: farm, animal: animal}
}

func addActivity(t *testing.T, s *Store, fx fixture, id string, status models.ActivityStatus, reminder *time.Time) models.Activity {
	t.Helper()
	a := models.Activity{
		ID: id, FarmID: fx.farm.ID, AnimalID: fx.animal.ID, Title: "Vaccinate " + id,
		ActivityDate: now.AddDate(0, 0, 3), ReminderDate: reminder, Status: status,
		CreatedBy: fx.owner.ID, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateActivity(context.Background(), &a))
	if reminder != nil {
		r := models.ActivityReminder{ID: "r-" + id, ActivityID: id, FarmID: fx.farm.ID, ReminderDate: *reminder, CreatedAt: now}
		require.NoError(t, s.UpsertReminder(context.Background(), &r))
	}
	return a
}

func day(offset int) *time.Time {
	d := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func TestProfiles(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	phone := "0812345678"
	p := models.Profile{ID: "p-1", ExternalUserID: "ext-1", FirstName: "A", PhoneNumber: &phone, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.UpsertProfile(ctx, &p))

	t.Run("update keeps id", func(t *testing.T) {
		again := models.Profile{ID: "ignored", ExternalUserID: "ext-1", FirstName: "B", PhoneNumber: &phone, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, s.UpsertProfile(ctx, &again))
		assert.Equal(t, "p-1", again.ID)
		assert.Equal(t, "B", again.FirstName)
	})

	t.Run("lookup by phone", func(t *testing.T) {
		got, err := s.GetProfileByPhone(ctx, phone)
		require.NoError(t, err)
		assert.Equal(t, "p-1", got.ID)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		other := models.Profile{ID: "p-2", ExternalUserID: "ext-2", PhoneNumber: &phone, CreatedAt: now, UpdatedAt: now}
		err := s.UpsertProfile(ctx, &other)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.GetProfileByExternalID(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestFarmsAndAccess(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	worker := models.Profile{ID: "p-worker", ExternalUserID: "ext-worker", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.UpsertProfile(ctx, &worker))
	require.NoError(t, s.AddFarmMember(ctx, &models.FarmMember{ID: "m-1", FarmID: fx.farm.ID, UserID: worker.ID, Role: models.RoleWorker, CreatedAt: now}))

	err := s.AddFarmMember(ctx, &models.FarmMember{ID: "m-2", FarmID: fx.farm.ID, UserID: worker.ID, Role: models.RoleManager, CreatedAt: now})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	owned, err := s.ListOwnedFarms(ctx, fx.owner.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)

	ownedByWorker, err := s.ListOwnedFarms(ctx, worker.ID)
	require.NoError(t, err)
	assert.Empty(t, ownedByWorker)

	ids, err := s.ListAccessibleFarmIDs(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fx.farm.ID}, ids)

	_, err = s.GetAnimal(ctx, fx.animal.ID, []string{"other-farm"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetAnimal(ctx, fx.animal.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, "BF20250110001", got.AnimalID)
}

func TestAnimals(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	dup := fx.animal
	dup.ID = "an-dup"
	assert.ErrorIs(t, s.CreateAnimal(ctx, &dup), store.ErrDuplicate)

	second := models.Animal{
		ID: "an-2", FarmID: fx.farm.ID, AnimalID: "BF20250110002", AnimalType: models.AnimalTypeBuffalo,
		Name: "Dam", Status: models.AnimalStatusSold, CreatedAt: now.Add(time.Minute), UpdatedAt: now,
	}
	require.NoError(t, s.CreateAnimal(ctx, &second))

	codes, err := s.ListAnimalCodes(ctx, fx.farm.ID, "BF20250110")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BF20250110001", "BF20250110002"}, codes)

	exists, err := s.AnimalCodeExists(ctx, fx.farm.ID, "BF20250110002")
	require.NoError(t, err)
	assert.True(t, exists)

	active := models.AnimalStatusActive
	list, total, err := s.ListAnimals(ctx, store.AnimalFilter{FarmIDs: []string{fx.farm.ID}, Status: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Tong", list[0].Name)

	q := "dam"
	list, total, err = s.ListAnimals(ctx, store.AnimalFilter{FarmIDs: []string{fx.farm.ID}, Query: &q})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "an-2", list[0].ID)

	list, total, err = s.ListAnimals(ctx, store.AnimalFilter{FarmIDs: []string{fx.farm.ID}, SortBy: "name", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Dam", list[0].Name)

	second.Status = models.AnimalStatusActive
	w := 420
	second.WeightKg = &w
	require.NoError(t, s.UpdateAnimal(ctx, &second))
	got, err := s.GetAnimal(ctx, second.ID, []string{fx.farm.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AnimalStatusActive, got.Status)
	require.NotNil(t, got.WeightKg)
	assert.Equal(t, 420, *got.WeightKg)
}

func TestActivities(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	addActivity(t, s, fx, "act-1", models.ActivityPending, day(1))
	addActivity(t, s, fx, "act-2", models.ActivityCompleted, nil)

	got, err := s.GetActivity(ctx, "act-1", []string{fx.farm.ID})
	require.NoError(t, err)
	assert.Equal(t, "Tong", got.Animal.Name)
	assert.Equal(t, "BF20250110001", got.Animal.AnimalID)
	require.NotNil(t, got.ReminderDate)
	assert.True(t, day(1).Equal(*got.ReminderDate))

	_, err = s.GetActivity(ctx, "act-1", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	hasReminder := true
	list, total, err := s.ListActivities(ctx, store.ActivityFilter{FarmIDs: []string{fx.farm.ID}, HasReminder: &hasReminder})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "act-1", list[0].ID)

	pending := models.ActivityPending
	list, _, err = s.ListActivities(ctx, store.ActivityFilter{FarmIDs: []string{fx.farm.ID}, Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteActivity(ctx, "act-1"))
	_, err = s.GetReminder(ctx, "act-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteActivity(ctx, "act-1"), store.ErrNotFound)
}

func TestListUpcomingActivities(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	addActivity(t, s, fx, "later", models.ActivityPending, day(3))
	addActivity(t, s, fx, "sooner", models.ActivityPending, day(1))
	addActivity(t, s, fx, "past", models.ActivityPending, day(-1))
	addActivity(t, s, fx, "far", models.ActivityPending, day(9))
	addActivity(t, s, fx, "done", models.ActivityCompleted, day(2))

	got, err := s.ListUpcomingActivities(ctx, []string{fx.farm.ID}, now, now.AddDate(0, 0, 7))
	require.NoError(t, err)

	var ids []string
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"sooner", "later"}, ids)
}

func TestReminders(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	addActivity(t, s, fx, "due", models.ActivityPending, day(0))
	addActivity(t, s, fx, "tomorrow", models.ActivityPending, day(1))
	addActivity(t, s, fx, "cancelled", models.ActivityCancelled, day(0))

	today := *day(0)
	due, err := s.ListDueReminders(ctx, today, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].Activity.ID)
	assert.Equal(t, "r-due", due[0].Reminder.ID)
	assert.Equal(t, "Tong", due[0].Animal.Name)
	assert.Equal(t, fx.owner.ID, due[0].Farm.OwnerID)
	assert.Equal(t, models.DefaultReminderTime, due[0].Reminder.ReminderTime)

	require.NoError(t, s.MarkReminderSent(ctx, "r-due", now))
	due, err = s.ListDueReminders(ctx, today, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, due)

	t.Run("upsert re-arms and keeps id", func(t *testing.T) {
		r := models.ActivityReminder{ID: "new-id", ActivityID: "due", FarmID: fx.farm.ID, ReminderDate: today, CreatedAt: now}
		require.NoError(t, s.UpsertReminder(ctx, &r))
		assert.Equal(t, "r-due", r.ID)
		assert.False(t, r.NotificationSent)
		assert.Nil(t, r.SentAt)
	})

	t.Run("delete future only", func(t *testing.T) {
		deleted, err := s.DeleteFutureReminder(ctx, "due", now)
		require.NoError(t, err)
		assert.False(t, deleted, "midnight reminder is before now")

		deleted, err = s.DeleteFutureReminder(ctx, "tomorrow", now)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}

func TestSubscriptions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	sub := models.PushSubscription{ID: "s-1", UserID: fx.owner.ID, Endpoint: "https://push.example/a", P256dh: "k", Auth: "a", IsActive: true, CreatedAt: now}
	require.NoError(t, s.UpsertSubscription(ctx, &sub))
	other := models.PushSubscription{ID: "s-2", UserID: fx.owner.ID, Endpoint: "https://push.example/b", P256dh: "k", Auth: "a", IsActive: true, CreatedAt: now}
	require.NoError(t, s.UpsertSubscription(ctx, &other))

	n, err := s.DeactivateUserSubscriptions(ctx, fx.owner.ID, "https://push.example/a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := s.ListActiveSubscriptions(ctx, fx.owner.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "s-2", active[0].ID)

	t.Run("resubscribe reactivates same row", func(t *testing.T) {
		again := models.PushSubscription{ID: "s-new", UserID: fx.owner.ID, Endpoint: "https://push.example/a", P256dh: "k2", Auth: "a2", IsActive: true, LastUsedAt: &now, CreatedAt: now}
		require.NoError(t, s.UpsertSubscription(ctx, &again))
		assert.Equal(t, "s-1", again.ID)
		assert.True(t, again.IsActive)
		assert.Equal(t, "k2", again.P256dh)
	})

	t.Run("deactivate all is idempotent", func(t *testing.T) {
		n, err := s.DeactivateUserSubscriptions(ctx, fx.owner.ID, "")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = s.DeactivateUserSubscriptions(ctx, fx.owner.ID, "")
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		require.NoError(t, s.DeactivateSubscription(ctx, "s-1"))
	})

	require.NoError(t, s.TouchSubscription(ctx, "s-2", now.Add(time.Hour)))
	assert.ErrorIs(t, s.TouchSubscription(ctx, "missing", now), store.ErrNotFound)
}

func TestNotifications(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	actID := "act-1"
	for i, sent := range []bool{true, false} {
		n := models.Notification{
			ID: []string{"n-1", "n-2"}[i], UserID: fx.owner.ID, FarmID: fx.farm.ID, ActivityID: &actID,
			Type: models.NotificationReminder, Title: "t", Message: "m", PushSent: sent,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.CreateNotification(ctx, &n))
	}

	got, err := s.ListNotifications(ctx, store.NotificationFilter{UserID: fx.owner.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n-2", got[0].ID)
	assert.False(t, got[0].PushSent)
	assert.True(t, got[1].PushSent)
}

func TestWithTx(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	fx := seed(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Store) error {
		a := models.Activity{
			ID: "tx-act", FarmID: fx.farm.ID, AnimalID: fx.animal.ID, Title: "x",
			ActivityDate: now, Status: models.ActivityPending, CreatedBy: fx.owner.ID, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, tx.CreateActivity(ctx, &a))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetActivity(ctx, "tx-act", []string{fx.farm.ID})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Store) error {
		a := models.Activity{
			ID: "tx-act", FarmID: fx.farm.ID, AnimalID: fx.animal.ID, Title: "x",
			ActivityDate: now, Status: models.ActivityPending, CreatedBy: fx.owner.ID, CreatedAt: now, UpdatedAt: now,
		}
		return tx.CreateActivity(ctx, &a)
	})
	require.NoError(t, err)

	_, err = s.GetActivity(ctx, "tx-act", []string{fx.farm.ID})
	assert.NoError(t, err)
}
