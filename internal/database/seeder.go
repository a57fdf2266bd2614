package database

import (
	"context"
	"errors"
	"fmt"

	"jaothui-api-server/internal/activity"
	"jaothui-api-server/internal/animal"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/profile"
	"jaothui-api-server/internal/store"
)

// SeedDemo gives externalUserID a profile, its default farm, one buffalo and a
// vaccination due today, so a local client has something to show and the
// reminder dispatcher has something to send. It does nothing when the profile
// already exists.
func SeedDemo(ctx context.Context, st store.Store, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger, externalUserID string) error {
	if externalUserID == "" {
		return errors.New("seeding demo data: external user id is required")
	}

	_, err := st.GetProfileByExternalID(ctx, externalUserID)
	if err == nil {
		logger.Info("demo profile already exists, seeding skipped", "external_user_id", externalUserID)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking demo profile: %w", err)
	}

	p, err := profile.NewService(st, clk, ids, logger).Resolve(ctx, profile.Identity{
		Subject:   externalUserID,
		FirstName: "Demo",
		LastName:  "Farmer",
	})
	if err != nil {
		return fmt.Errorf("seeding demo profile: %w", err)
	}

	farms, err := st.ListOwnedFarms(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("listing demo farms: %w", err)
	}
	if len(farms) == 0 {
		return errors.New("seeding demo profile: default farm missing")
	}

	a, err := animal.NewService(st, nil, clk, ids, logger).Create(ctx, p.ID, animal.CreateInput{
		FarmID:     farms[0].ID,
		AnimalType: models.AnimalTypeBuffalo,
		Name:       "ทองคำ",
		Color:      "ดำ",
	})
	if err != nil {
		return fmt.Errorf("seeding demo animal: %w", err)
	}

	today := models.NewDate(clk.Now())
	_, err = activity.NewService(st, clk, ids, logger).Create(ctx, p.ID, activity.CreateInput{
		FarmID:       farms[0].ID,
		AnimalID:     a.ID,
		Title:        "ฉีดวัคซีนปากและเท้าเปื่อย",
		ActivityDate: models.NewDate(today.AddDate(0, 0, 1)),
		ReminderDate: today,
	})
	if err != nil {
		return fmt.Errorf("seeding demo activity: %w", err)
	}

	logger.Info("demo data seeded", "profile_id", p.ID, "farm_id", farms[0].ID, "animal_code", a.AnimalID)
	return nil
}
