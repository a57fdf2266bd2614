// Package farm creates and lists farms. Every farm gets an OWNER membership
// for its owner when it is created.
package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/validate"
)

const (
	DefaultName     = "ฟาร์มของฉัน"
	DefaultProvince = "ไม่ระบุ"

	codeAttempts = 5
)

type CreateInput struct {
	FarmName string `json:"farmName" validate:"required,max=100"`
	Province string `json:"province" validate:"required,max=50"`
}

type Service struct {
	store  store.Store
	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
}

func NewService(st store.Store, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger) *Service {
	return &Service{store: st, clock: clk, ids: ids, logger: logger.With("component", "farm")}
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*models.Farm, error) {
	in.FarmName = strings.TrimSpace(in.FarmName)
	in.Province = strings.TrimSpace(in.Province)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	var f *models.Farm
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		f, err = Provision(ctx, tx, s.ids, s.clock.Now(), ownerID, in.FarmName, in.Province)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("farm created", "farm_id", f.ID, "owner_id", ownerID, "code", f.FarmCode)
	return f, nil
}

// ListOwned returns the owner's farms, oldest first.
func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]models.Farm, error) {
	farms, err := s.store.ListOwnedFarms(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing farms")
	}
	return farms, nil
}

// Provision inserts a farm with an "FM<unix millis>" code and the owner's
// membership using st, which is normally a transaction. A taken code is
// retried with the next millisecond.
func Provision(ctx context.Context, st store.Store, ids clock.IDGenerator, now time.Time, ownerID, name, province string) (*models.Farm, error) {
	f := models.Farm{
		ID:        ids.New(),
		OwnerID:   ownerID,
		FarmName:  name,
		Province:  province,
		CreatedAt: now,
		UpdatedAt: now,
	}

	millis := now.UnixMilli()
	for attempt := 0; ; attempt++ {
		f.FarmCode = fmt.Sprintf("FM%d", millis+int64(attempt))
		err := st.CreateFarm(ctx, &f)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == codeAttempts-1 {
			return nil, apperrors.Infrastructure(err, "creating farm")
		}
	}

	m := models.FarmMember{
		ID:        ids.New(),
		FarmID:    f.ID,
		UserID:    ownerID,
		Role:      models.RoleOwner,
		CreatedAt: now,
	}
	if err := st.AddFarmMember(ctx, &m); err != nil {
		return nil, apperrors.Infrastructure(err, "adding farm owner")
	}
	return &f, nil
}

// EnsureDefault gives ownerID a default farm when they own none. It reports
// whether a farm was created.
func EnsureDefault(ctx context.Context, st store.Store, ids clock.IDGenerator, now time.Time, ownerID string) (bool, error) {
	farms, err := st.ListOwnedFarms(ctx, ownerID)
	if err != nil {
		return false, apperrors.Infrastructure(err, "listing farms")
	}
	if len(farms) > 0 {
		return false, nil
	}
	if _, err := Provision(ctx, st, ids, now, ownerID, DefaultName, DefaultProvince); err != nil {
		return false, err
	}
	return true, nil
}
