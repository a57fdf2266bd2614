package activity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/optional"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/store/sqlstore"
	"jaothui-api-server/internal/testutil"
)

func date(day int) models.Date {
	return models.NewDate(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC))
}

type env struct {
	svc   *Service
	store *sqlstore.Store
	clock *testutil.StubClock
	mine  testutil.Farm
	other testutil.Farm
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := testutil.NewTestStore(t)
	clk := testutil.FixedClock() // 2025-01-10 06:00 UTC
	return &env{
		svc:   NewService(st, clk, testutil.NewStubIDGenerator(), logging.NewNopLogger()),
		store: st,
		clock: clk,
		mine:  testutil.SeedFarm(t, st, "mine", clk.Now()),
		other: testutil.SeedFarm(t, st, "other", clk.Now()),
	}
}

func (e *env) create(t *testing.T, activityDay, reminderDay int) *models.ActivityWithAnimal {
	t.Helper()
	in := CreateInput{
		FarmID: e.mine.Farm.ID, AnimalID: e.mine.Animal.ID, Title: "ฉีดวัคซีน",
		ActivityDate: date(activityDay),
	}
	if reminderDay > 0 {
		in.ReminderDate = date(reminderDay)
	}
	a, err := e.svc.Create(context.Background(), e.mine.Owner.ID, in)
	require.NoError(t, err)
	return a
}

func (e *env) reminder(t *testing.T, activityID string) *models.ActivityReminder {
	t.Helper()
	r, err := e.store.GetReminder(context.Background(), activityID)
	if err != nil {
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}
	return r
}

func assertKind(t *testing.T, err error, kind apperrors.Kind, field string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), err.Error())
	if field != "" {
		var ae *apperrors.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, field, ae.Field)
	}
}

func TestCanTransition(t *testing.T) {
	const (
		P = models.ActivityPending
		C = models.ActivityCompleted
		X = models.ActivityCancelled
		O = models.ActivityOverdue
	)
	tests := []struct {
		from, to models.ActivityStatus
		want     bool
	}{
		{P, C, true}, {P, X, true}, {P, O, true}, {P, P, true},
		{C, P, true}, {X, P, true},
		{C, X, false}, {X, C, false}, {C, O, false}, {X, O, false},
		{O, P, true}, {O, C, true}, {O, X, true},
		{P, "DONE", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.create(t, 15, 14)
	assert.Equal(t, models.ActivityPending, a.Status)
	assert.Equal(t, e.mine.Owner.ID, a.CreatedBy)
	assert.Equal(t, e.mine.Animal.Summary(), a.Animal)
	assert.Nil(t, a.CompletedAt)

	r := e.reminder(t, a.ID)
	require.NotNil(t, r)
	assert.True(t, r.ReminderDate.Equal(date(14).Time))
	assert.Equal(t, "06:00", r.ReminderTime)
	assert.False(t, r.NotificationSent)
	assert.Equal(t, e.mine.Farm.ID, r.FarmID)

	t.Run("without reminder", func(t *testing.T) {
		a := e.create(t, 15, 0)
		assert.Nil(t, a.ReminderDate)
		assert.Nil(t, e.reminder(t, a.ID))
	})

	t.Run("reminder on the activity day", func(t *testing.T) {
		a := e.create(t, 15, 15)
		assert.NotNil(t, e.reminder(t, a.ID))
	})

	t.Run("created closed records the completer", func(t *testing.T) {
		a, err := e.svc.Create(ctx, e.mine.Owner.ID, CreateInput{
			FarmID: e.mine.Farm.ID, AnimalID: e.mine.Animal.ID, Title: "done already",
			ActivityDate: date(9), Status: models.ActivityCompleted,
		})
		require.NoError(t, err)
		require.NotNil(t, a.CompletedBy)
		assert.Equal(t, e.mine.Owner.ID, *a.CompletedBy)
		require.NotNil(t, a.CompletedAt)
	})
}

func TestCreate_Rejected(t *testing.T) {
	e := newEnv(t)
	valid := func() CreateInput {
		return CreateInput{
			FarmID: e.mine.Farm.ID, AnimalID: e.mine.Animal.ID, Title: "ตรวจสุขภาพ",
			ActivityDate: date(15), ReminderDate: date(14),
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		kind   apperrors.Kind
		field  string
	}{
		{"blank title", func(in *CreateInput) { in.Title = "   " }, apperrors.KindValidation, "title"},
		{"missing activity date", func(in *CreateInput) { in.ActivityDate = models.Date{} }, apperrors.KindValidation, "activityDate"},
		{"reminder after activity", func(in *CreateInput) { in.ReminderDate = date(16) }, apperrors.KindValidation, "reminderDate"},
		{"unknown status", func(in *CreateInput) { in.Status = "DONE" }, apperrors.KindValidation, "status"},
		{"foreign farm", func(in *CreateInput) { in.FarmID = e.other.Farm.ID; in.AnimalID = e.other.Animal.ID }, apperrors.KindNotFound, ""},
		{"animal of another farm", func(in *CreateInput) { in.AnimalID = e.other.Animal.ID }, apperrors.KindNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := e.svc.Create(context.Background(), e.mine.Owner.ID, in)
			assertKind(t, err, tt.kind, tt.field)
		})
	}

	_, total, err := e.store.ListActivities(context.Background(), store.ActivityFilter{
		FarmIDs: []string{e.mine.Farm.ID, e.other.Farm.ID},
	})
	require.NoError(t, err)
	assert.Zero(t, total, "rejected creates persist nothing")
}

func TestChangeStatus_Close(t *testing.T) {
	for _, status := range []models.ActivityStatus{models.ActivityCompleted, models.ActivityCancelled} {
		t.Run(string(status), func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			future := e.create(t, 15, 12)
			dueToday := e.create(t, 15, 10)

			got, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, future.ID, StatusInput{Status: status})
			require.NoError(t, err)
			assert.Equal(t, status, got.Status)
			require.NotNil(t, got.CompletedBy)
			assert.Equal(t, e.mine.Owner.ID, *got.CompletedBy)
			require.NotNil(t, got.CompletedAt)
			assert.True(t, e.clock.Now().Equal(*got.CompletedAt))
			assert.Nil(t, e.reminder(t, future.ID), "future reminder purged")

			_, err = e.svc.ChangeStatus(ctx, e.mine.Owner.ID, dueToday.ID, StatusInput{Status: status})
			require.NoError(t, err)
			assert.NotNil(t, e.reminder(t, dueToday.ID), "reminder dated before now is kept")

			stored, err := e.svc.Get(ctx, e.mine.Owner.ID, future.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
		})
	}
}

func TestChangeStatus_Reopen(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, 20, 10)

	r := e.reminder(t, a.ID)
	require.NoError(t, e.store.MarkReminderSent(ctx, r.ID, e.clock.Now()))
	_, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, a.ID, StatusInput{Status: models.ActivityCompleted})
	require.NoError(t, err)

	e.clock.Advance(24 * time.Hour)
	got, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, a.ID, StatusInput{
		Status: models.ActivityPending, ReminderDate: date(18),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPending, got.Status)
	assert.Nil(t, got.CompletedBy)
	assert.Nil(t, got.CompletedAt)
	require.NotNil(t, got.ReminderDate)
	assert.True(t, got.ReminderDate.Equal(date(18).Time))

	rearmed := e.reminder(t, a.ID)
	require.NotNil(t, rearmed)
	assert.Equal(t, r.ID, rearmed.ID, "reminder row reused")
	assert.True(t, rearmed.ReminderDate.Equal(date(18).Time))
	assert.False(t, rearmed.NotificationSent)
	assert.Nil(t, rearmed.SentAt)

	t.Run("reopen without a date keeps reminder state", func(t *testing.T) {
		b := e.create(t, 20, 0)
		_, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, b.ID, StatusInput{Status: models.ActivityCancelled})
		require.NoError(t, err)
		got, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, b.ID, StatusInput{Status: models.ActivityPending})
		require.NoError(t, err)
		assert.Nil(t, got.CompletedAt)
		assert.Nil(t, e.reminder(t, b.ID))
	})
}

func TestChangeStatus_Postpone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, 20, 10)
	r := e.reminder(t, a.ID)
	require.NoError(t, e.store.MarkReminderSent(ctx, r.ID, e.clock.Now()))

	got, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, a.ID, StatusInput{
		Status: models.ActivityPending, ReminderDate: date(13),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPending, got.Status)

	postponed := e.reminder(t, a.ID)
	assert.True(t, postponed.ReminderDate.Equal(date(13).Time))
	assert.False(t, postponed.NotificationSent)
}

func TestChangeStatus_Rejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	completed := e.create(t, 15, 12)
	_, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, completed.ID, StatusInput{Status: models.ActivityCompleted})
	require.NoError(t, err)
	pending := e.create(t, 15, 12)

	tests := []struct {
		name  string
		id    string
		actor string
		in    StatusInput
		kind  apperrors.Kind
		field string
	}{
		{"completed to cancelled", completed.ID, e.mine.Owner.ID, StatusInput{Status: models.ActivityCancelled}, apperrors.KindValidation, "status"},
		{"completed to overdue", completed.ID, e.mine.Owner.ID, StatusInput{Status: models.ActivityOverdue}, apperrors.KindValidation, "status"},
		{"unknown status", pending.ID, e.mine.Owner.ID, StatusInput{Status: "DONE"}, apperrors.KindValidation, "status"},
		{"missing status", pending.ID, e.mine.Owner.ID, StatusInput{}, apperrors.KindValidation, "status"},
		{"reminder with close", pending.ID, e.mine.Owner.ID, StatusInput{Status: models.ActivityCompleted, ReminderDate: date(11)}, apperrors.KindValidation, "reminderDate"},
		{"postpone past activity date", pending.ID, e.mine.Owner.ID, StatusInput{Status: models.ActivityPending, ReminderDate: date(16)}, apperrors.KindValidation, "reminderDate"},
		{"unknown id", "missing", e.mine.Owner.ID, StatusInput{Status: models.ActivityCompleted}, apperrors.KindNotFound, ""},
		{"someone else's activity", pending.ID, e.other.Owner.ID, StatusInput{Status: models.ActivityCompleted}, apperrors.KindNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.ChangeStatus(ctx, tt.actor, tt.id, tt.in)
			assertKind(t, err, tt.kind, tt.field)
		})
	}

	got, err := e.svc.Get(ctx, e.mine.Owner.ID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPending, got.Status)
	assert.True(t, got.ReminderDate.Equal(date(12).Time))
	assert.True(t, e.reminder(t, pending.ID).ReminderDate.Equal(date(12).Time))
}

func TestChangeStatus_Overdue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, 15, 0)

	steps := []models.ActivityStatus{
		models.ActivityOverdue, models.ActivityPending, models.ActivityOverdue, models.ActivityCompleted,
	}
	for _, st := range steps {
		got, err := e.svc.ChangeStatus(ctx, e.mine.Owner.ID, a.ID, StatusInput{Status: st})
		require.NoError(t, err, st)
		assert.Equal(t, st, got.Status)
		assert.Equal(t, st.Closed(), got.CompletedAt != nil, st)
	}
}

func decodeUpdate(t *testing.T, body string) UpdateInput {
	t.Helper()
	var in UpdateInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, 15, 12)
	owner := e.mine.Owner.ID

	t.Run("absent fields untouched", func(t *testing.T) {
		got, err := e.svc.Update(ctx, owner, a.ID, decodeUpdate(t, `{"title":" ตรวจสุขภาพ "}`))
		require.NoError(t, err)
		assert.Equal(t, "ตรวจสุขภาพ", got.Title)
		require.NotNil(t, got.ReminderDate)
		assert.NotNil(t, e.reminder(t, a.ID))
	})

	t.Run("null reminder deletes it", func(t *testing.T) {
		got, err := e.svc.Update(ctx, owner, a.ID, decodeUpdate(t, `{"reminderDate":null}`))
		require.NoError(t, err)
		assert.Nil(t, got.ReminderDate)
		assert.Nil(t, e.reminder(t, a.ID))
	})

	t.Run("empty reminder is also a delete", func(t *testing.T) {
		_, err := e.svc.Update(ctx, owner, a.ID, decodeUpdate(t, `{"reminderDate":"2025-01-13"}`))
		require.NoError(t, err)
		require.NotNil(t, e.reminder(t, a.ID))

		_, err = e.svc.Update(ctx, owner, a.ID, decodeUpdate(t, `{"reminderDate":""}`))
		require.NoError(t, err)
		assert.Nil(t, e.reminder(t, a.ID))
	})

	t.Run("value creates reminder with default time", func(t *testing.T) {
		got, err := e.svc.Update(ctx, owner, a.ID, decodeUpdate(t, `{"reminderDate":"2025-01-14","description":"เข็มสอง"}`))
		require.NoError(t, err)
		assert.Equal(t, "เข็มสอง", got.Description)
		r := e.reminder(t, a.ID)
		require.NotNil(t, r)
		assert.Equal(t, models.DefaultReminderTime, r.ReminderTime)
		assert.True(t, r.ReminderDate.Equal(date(14).Time))
	})

	t.Run("moving the activity before its reminder is rejected", func(t *testing.T) {
		_, err := e.svc.Update(ctx, owner, a.ID, decodeUpdate(t, `{"activityDate":"2025-01-13","title":"x"}`))
		assertKind(t, err, apperrors.KindValidation, "reminderDate")

		got, err := e.svc.Get(ctx, owner, a.ID)
		require.NoError(t, err)
		assert.True(t, got.ActivityDate.Equal(date(15).Time))
		assert.Equal(t, "ตรวจสุขภาพ", got.Title)
	})

	t.Run("status in an edit follows the machine", func(t *testing.T) {
		got, err := e.svc.Update(ctx, owner, a.ID, UpdateInput{Status: optional.Of(models.ActivityCancelled)})
		require.NoError(t, err)
		assert.Equal(t, models.ActivityCancelled, got.Status)
		require.NotNil(t, got.CompletedBy)
		assert.Nil(t, e.reminder(t, a.ID), "future reminder purged")

		_, err = e.svc.Update(ctx, owner, a.ID, UpdateInput{Status: optional.Of(models.ActivityCompleted)})
		assertKind(t, err, apperrors.KindValidation, "status")
	})
}

func TestUpdate_Rejected(t *testing.T) {
	e := newEnv(t)
	a := e.create(t, 15, 12)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"null title", `{"title":null}`, "title"},
		{"blank title", `{"title":"  "}`, "title"},
		{"null activity date", `{"activityDate":null}`, "activityDate"},
		{"reminder after activity", `{"reminderDate":"2025-01-20"}`, "reminderDate"},
		{"both dates inconsistent", `{"activityDate":"2025-01-11","reminderDate":"2025-01-12"}`, "reminderDate"},
		{"bad status", `{"status":"DONE"}`, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Update(context.Background(), e.mine.Owner.ID, a.ID, decodeUpdate(t, tt.body))
			assertKind(t, err, apperrors.KindValidation, tt.field)
		})
	}

	r := e.reminder(t, a.ID)
	require.NotNil(t, r)
	assert.True(t, r.ReminderDate.Equal(date(12).Time))
}

func TestAccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, 15, 12)

	worker := models.Profile{ID: "worker", ExternalUserID: "ext-worker", CreatedAt: e.clock.Now(), UpdatedAt: e.clock.Now()}
	require.NoError(t, e.store.UpsertProfile(ctx, &worker))
	require.NoError(t, e.store.AddFarmMember(ctx, &models.FarmMember{
		ID: "m-worker", FarmID: e.mine.Farm.ID, UserID: worker.ID, Role: models.RoleWorker, CreatedAt: e.clock.Now(),
	}))

	t.Run("member can read and complete", func(t *testing.T) {
		_, err := e.svc.Get(ctx, worker.ID, a.ID)
		require.NoError(t, err)
		got, err := e.svc.ChangeStatus(ctx, worker.ID, a.ID, StatusInput{Status: models.ActivityCompleted})
		require.NoError(t, err)
		assert.Equal(t, worker.ID, *got.CompletedBy)
	})

	t.Run("outsider sees nothing", func(t *testing.T) {
		_, err := e.svc.Get(ctx, e.other.Owner.ID, a.ID)
		assertKind(t, err, apperrors.KindNotFound, "")
		_, err = e.svc.Update(ctx, e.other.Owner.ID, a.ID, UpdateInput{Title: optional.Of("x")})
		assertKind(t, err, apperrors.KindNotFound, "")
		assertKind(t, e.svc.Delete(ctx, e.other.Owner.ID, a.ID), apperrors.KindNotFound, "")

		page, err := e.svc.List(ctx, e.other.Owner.ID, ListInput{FarmID: e.mine.Farm.ID})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
	})
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, 15, 12)

	require.NoError(t, e.svc.Delete(ctx, e.mine.Owner.ID, a.ID))
	assert.Nil(t, e.reminder(t, a.ID))

	_, err := e.svc.Get(ctx, e.mine.Owner.ID, a.ID)
	assertKind(t, err, apperrors.KindNotFound, "")
	assertKind(t, e.svc.Delete(ctx, e.mine.Owner.ID, a.ID), apperrors.KindNotFound, "")
}

func TestList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.mine.Owner.ID

	first := e.create(t, 12, 11)
	e.clock.Advance(time.Minute)
	second := e.create(t, 20, 0)
	e.clock.Advance(time.Minute)
	third := e.create(t, 16, 14)
	_, err := e.svc.ChangeStatus(ctx, owner, third.ID, StatusInput{Status: models.ActivityCompleted})
	require.NoError(t, err)

	pending := models.ActivityPending
	yes, no := true, false
	from, to := date(13).Time, date(20).Time

	tests := []struct {
		name string
		in   ListInput
		want []string
	}{
		{"default newest first", ListInput{}, []string{third.ID, second.ID, first.ID}},
		{"activity date ascending", ListInput{SortBy: "activityDate", SortOrder: "asc"}, []string{first.ID, third.ID, second.ID}},
		{"status", ListInput{Status: &pending}, []string{second.ID, first.ID}},
		{"with reminder", ListInput{HasReminder: &yes}, []string{third.ID, first.ID}},
		{"without reminder", ListInput{HasReminder: &no}, []string{second.ID}},
		{"date range", ListInput{From: &from, To: &to}, []string{third.ID, second.ID}},
		{"animal", ListInput{AnimalID: e.mine.Animal.ID, PageRequest: models.PageRequest{Limit: 2}}, []string{third.ID, second.ID}},
		{"second page", ListInput{PageRequest: models.PageRequest{Page: 2, Limit: 2}}, []string{first.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := e.svc.List(ctx, owner, tt.in)
			require.NoError(t, err)
			got := make([]string, len(page.Data))
			for i, a := range page.Data {
				got[i] = a.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("pagination metadata", func(t *testing.T) {
		page, err := e.svc.List(ctx, owner, ListInput{PageRequest: models.PageRequest{Page: 1, Limit: 2}})
		require.NoError(t, err)
		assert.Equal(t, models.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNext: true}, page.Pagination)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := e.svc.List(ctx, owner, ListInput{From: &to, To: &from})
		assertKind(t, err, apperrors.KindValidation, "dateTo")
		_, err = e.svc.List(ctx, owner, ListInput{SortBy: "animal_code"})
		assertKind(t, err, apperrors.KindValidation, "sortBy")
	})
}
