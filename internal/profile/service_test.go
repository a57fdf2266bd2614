package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/farm"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/store/sqlstore"
	"jaothui-api-server/internal/testutil"
)

func newService(t *testing.T) (*Service, *sqlstore.Store) {
	t.Helper()
	st := testutil.NewTestStore(t)
	return NewService(st, testutil.FixedClock(), testutil.NewStubIDGenerator(), logging.NewNopLogger()), st
}

func TestResolve(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	p, err := svc.Resolve(ctx, Identity{Subject: "user_2abc", AvatarURL: "https://img.example/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", p.ExternalUserID)
	assert.Equal(t, "User", p.FirstName)
	assert.Nil(t, p.PhoneNumber)

	farms, err := st.ListOwnedFarms(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, farms, 1)
	assert.Equal(t, farm.DefaultName, farms[0].FarmName)

	again, err := svc.Resolve(ctx, Identity{Subject: "user_2abc", FirstName: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "User", again.FirstName)

	farms, err = st.ListOwnedFarms(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, farms, 1)

	_, err = svc.Resolve(ctx, Identity{})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestComplete(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	me := Identity{Subject: "user_me"}

	t.Run("creates profile and default farm", func(t *testing.T) {
		p, err := svc.Complete(ctx, me, CompleteInput{FirstName: " สมชาย ", LastName: "ใจดี", PhoneNumber: "0812345678"})
		require.NoError(t, err)
		assert.Equal(t, "สมชาย", p.FirstName)
		require.NotNil(t, p.PhoneNumber)
		assert.Equal(t, "0812345678", *p.PhoneNumber)

		farms, err := st.ListOwnedFarms(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, farms, 1)
		assert.Equal(t, farm.DefaultProvince, farms[0].Province)
	})

	t.Run("updates in place", func(t *testing.T) {
		before, err := svc.Get(ctx, me.Subject)
		require.NoError(t, err)

		p, err := svc.Complete(ctx, me, CompleteInput{FirstName: "สมชาย", LastName: "ใจงาม", PhoneNumber: "0899999999"})
		require.NoError(t, err)
		assert.Equal(t, before.ID, p.ID)
		assert.Equal(t, "ใจงาม", p.LastName)

		farms, err := st.ListOwnedFarms(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, farms, 1, "no second default farm")
	})

	t.Run("keeping own phone is fine", func(t *testing.T) {
		_, err := svc.Complete(ctx, me, CompleteInput{FirstName: "สมชาย", LastName: "ใจงาม", PhoneNumber: "0899999999"})
		require.NoError(t, err)
	})

	t.Run("someone else's phone conflicts", func(t *testing.T) {
		_, err := svc.Complete(ctx, Identity{Subject: "user_other"}, CompleteInput{FirstName: "a", LastName: "b", PhoneNumber: "0899999999"})
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))

		_, err = svc.Get(ctx, "user_other")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "nothing persisted")
	})
}

func TestComplete_Validation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name  string
		in    CompleteInput
		field string
	}{
		{"missing first name", CompleteInput{LastName: "b", PhoneNumber: "0812345678"}, "firstName"},
		{"blank last name", CompleteInput{FirstName: "a", LastName: "  ", PhoneNumber: "0812345678"}, "lastName"},
		{"short phone", CompleteInput{FirstName: "a", LastName: "b", PhoneNumber: "08123"}, "phoneNumber"},
		{"letters in phone", CompleteInput{FirstName: "a", LastName: "b", PhoneNumber: "08123456ab"}, "phoneNumber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Complete(context.Background(), Identity{Subject: "user_x"}, tt.in)
			require.Error(t, err)
			var ae *apperrors.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperrors.KindValidation, ae.Kind)
			assert.Equal(t, tt.field, ae.Field)
		})
	}
}
