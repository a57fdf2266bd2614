package farm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/testutil"
)

func TestCreate(t *testing.T) {
	st := testutil.NewTestStore(t)
	clk := testutil.FixedClock()
	ctx := context.Background()
	fx := testutil.SeedFarm(t, st, "a", clk.Now())
	svc := NewService(st, clk, testutil.NewStubIDGenerator(), logging.NewNopLogger())

	first, err := svc.Create(ctx, fx.Owner.ID, CreateInput{FarmName: " ฟาร์มควาย ", Province: "สุรินทร์"})
	require.NoError(t, err)
	assert.Equal(t, "ฟาร์มควาย", first.FarmName)
	assert.Equal(t, "FM1736488800000", first.FarmCode)

	second, err := svc.Create(ctx, fx.Owner.ID, CreateInput{FarmName: "ฟาร์มไก่", Province: "น่าน"})
	require.NoError(t, err)
	assert.Equal(t, "FM1736488800001", second.FarmCode, "same millisecond takes the next code")

	ids, err := st.ListAccessibleFarmIDs(ctx, fx.Owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fx.Farm.ID, first.ID, second.ID}, ids)

	owned, err := svc.ListOwned(ctx, fx.Owner.ID)
	require.NoError(t, err)
	require.Len(t, owned, 3)
	assert.Equal(t, fx.Farm.ID, owned[0].ID)

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing name", CreateInput{Province: "น่าน"}, "farmName"},
		{"blank province", CreateInput{FarmName: "x", Province: "  "}, "province"},
		{"long name", CreateInput{FarmName: strings.Repeat("ก", 101), Province: "น่าน"}, "farmName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, fx.Owner.ID, tt.in)
			require.Error(t, err)
			var ae *apperrors.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperrors.KindValidation, ae.Kind)
			assert.Equal(t, tt.field, ae.Field)
		})
	}
}

func TestEnsureDefault(t *testing.T) {
	st := testutil.NewTestStore(t)
	clk := testutil.FixedClock()
	ctx := context.Background()
	ids := testutil.NewStubIDGenerator()

	p := models.Profile{ID: "p1", ExternalUserID: "ext-1", CreatedAt: clk.Now(), UpdatedAt: clk.Now()}
	require.NoError(t, st.UpsertProfile(ctx, &p))

	created, err := EnsureDefault(ctx, st, ids, clk.Now(), p.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureDefault(ctx, st, ids, clk.Now(), p.ID)
	require.NoError(t, err)
	assert.False(t, created)

	farms, err := st.ListOwnedFarms(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, farms, 1)
	assert.Equal(t, DefaultName, farms[0].FarmName)
	assert.Equal(t, DefaultProvince, farms[0].Province)
}
