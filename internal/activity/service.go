// Package activity owns the care-activity lifecycle: creation, edits and
// status transitions, and the reminder row that follows them.
package activity

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/optional"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/validate"
)

var errReminderAfterActivity = apperrors.Validation("reminderDate", "must be on or before activityDate")

type CreateInput struct {
	FarmID       string                `json:"farmId" validate:"required"`
	AnimalID     string                `json:"animalId" validate:"required"`
	Title        string                `json:"title" validate:"required,max=200"`
	Description  string                `json:"description" validate:"max=1000"`
	ActivityDate models.Date           `json:"activityDate"`
	ReminderDate models.Date           `json:"reminderDate"`
	Status       models.ActivityStatus `json:"status" validate:"omitempty,oneof=PENDING COMPLETED CANCELLED OVERDUE"`
}

// UpdateInput is a partial edit. A present reminderDate that is null or empty
// removes the reminder.
type UpdateInput struct {
	Title        optional.Value[string]                `json:"title"`
	Description  optional.Value[string]                `json:"description"`
	ActivityDate optional.Value[models.Date]           `json:"activityDate"`
	ReminderDate optional.Value[models.Date]           `json:"reminderDate"`
	Status       optional.Value[models.ActivityStatus] `json:"status"`
}

// StatusInput changes status. ReminderDate is accepted only with PENDING and
// re-arms the reminder (postpone or reopen).
type StatusInput struct {
	Status       models.ActivityStatus `json:"status" validate:"required,oneof=PENDING COMPLETED CANCELLED OVERDUE"`
	ReminderDate models.Date           `json:"reminderDate"`
}

type ListInput struct {
	FarmID      string
	AnimalID    string
	Status      *models.ActivityStatus
	From        *time.Time
	To          *time.Time
	HasReminder *bool
	SortBy      string // activityDate, reminderDate, createdAt, title
	SortOrder   string // asc or desc
	models.PageRequest
}

var sortColumns = map[string]string{
	"activityDate": "activity_date",
	"reminderDate": "reminder_date",
	"createdAt":    "created_at",
	"title":        "title",
}

type Service struct {
	store  store.Store
	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
}

func NewService(st store.Store, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger) *Service {
	return &Service{store: st, clock: clk, ids: ids, logger: logger.With("component", "activity")}
}

func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (*models.ActivityWithAnimal, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.ActivityDate.IsZero() {
		return nil, apperrors.Validation("activityDate", "is required")
	}
	if !in.ReminderDate.IsZero() && in.ReminderDate.After(in.ActivityDate.Time) {
		return nil, errReminderAfterActivity
	}
	if in.Status == "" {
		in.Status = models.ActivityPending
	}

	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(farmIDs, in.FarmID) {
		return nil, apperrors.NotFound("farm not found")
	}

	now := s.clock.Now()
	a := models.Activity{
		ID:           s.ids.New(),
		FarmID:       in.FarmID,
		AnimalID:     in.AnimalID,
		Title:        in.Title,
		Description:  in.Description,
		ActivityDate: in.ActivityDate.Time,
		ReminderDate: in.ReminderDate.Ptr(),
		Status:       in.Status,
		CreatedBy:    actorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.Status.Closed() {
		actor := actorID
		a.CompletedBy = &actor
		a.CompletedAt = &now
	}

	var out *models.ActivityWithAnimal
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		animal, err := tx.GetAnimal(ctx, in.AnimalID, []string{in.FarmID})
		if err != nil {
			return translate(err, "animal")
		}
		if err := tx.CreateActivity(ctx, &a); err != nil {
			return translate(err, "activity")
		}
		if a.ReminderDate != nil && !a.Status.Closed() {
			if err := s.syncReminder(ctx, tx, a, now); err != nil {
				return err
			}
		}
		out = &models.ActivityWithAnimal{Activity: a, Animal: animal.Summary()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("activity created", "activity_id", a.ID, "farm_id", a.FarmID, "has_reminder", a.ReminderDate != nil)
	return out, nil
}

// Get returns an activity on one of the actor's farms.
func (s *Service) Get(ctx context.Context, actorID, id string) (*models.ActivityWithAnimal, error) {
	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}
	a, err := s.store.GetActivity(ctx, id, farmIDs)
	if err != nil {
		return nil, translate(err, "activity")
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, actorID string, in ListInput) (*models.Page[models.ActivityWithAnimal], error) {
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return nil, apperrors.Validation("dateTo", "must be on or after dateFrom")
	}
	col := "created_at"
	if in.SortBy != "" {
		c, ok := sortColumns[in.SortBy]
		if !ok {
			return nil, apperrors.Validation("sortBy", "must be one of [activityDate reminderDate createdAt title]")
		}
		col = c
	}

	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.FarmID != "" {
		if !slices.Contains(farmIDs, in.FarmID) {
			farmIDs = nil
		} else {
			farmIDs = []string{in.FarmID}
		}
	}

	f := store.ActivityFilter{
		FarmIDs:     farmIDs,
		Status:      in.Status,
		From:        in.From,
		To:          in.To,
		HasReminder: in.HasReminder,
		SortBy:      col,
		SortDesc:    !strings.EqualFold(in.SortOrder, "asc"),
		Limit:       in.PageRequest.Normalise().Limit,
		Offset:      in.PageRequest.Offset(),
	}
	if in.AnimalID != "" {
		f.AnimalID = &in.AnimalID
	}

	items, total, err := s.store.ListActivities(ctx, f)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing activities")
	}
	page := models.NewPage(items, in.PageRequest, total)
	return &page, nil
}

// Update applies a partial edit. A status in the edit follows the same
// transition rules as ChangeStatus.
func (s *Service) Update(ctx context.Context, actorID, id string, in UpdateInput) (*models.ActivityWithAnimal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var out *models.ActivityWithAnimal
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		cur, err := tx.GetActivity(ctx, id, farmIDs)
		if err != nil {
			return translate(err, "activity")
		}
		a := cur.Activity

		if v, ok := in.Title.Get(); ok {
			a.Title = strings.TrimSpace(v)
		}
		if in.Description.Set {
			a.Description = strings.TrimSpace(in.Description.Value)
		}
		if v, ok := in.ActivityDate.Get(); ok {
			a.ActivityDate = v.Time
		}
		if in.ReminderDate.Set {
			a.ReminderDate = in.ReminderDate.Value.Ptr()
		}
		if a.ReminderDate != nil && a.ReminderDate.After(a.ActivityDate) {
			return errReminderAfterActivity
		}

		closed := false
		if st, ok := in.Status.Get(); ok {
			if closed, err = applyStatus(&a, st, actorID, now); err != nil {
				return err
			}
		}

		a.UpdatedAt = now
		if err := tx.UpdateActivity(ctx, &a); err != nil {
			return translate(err, "activity")
		}
		if in.ReminderDate.Set {
			if err := s.syncReminder(ctx, tx, a, now); err != nil {
				return err
			}
		}
		if closed {
			if err := s.purgeFutureReminder(ctx, tx, a.ID, now); err != nil {
				return err
			}
		}
		out = &models.ActivityWithAnimal{Activity: a, Animal: cur.Animal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("activity updated", "activity_id", id, "status", out.Status)
	return out, nil
}

// ChangeStatus moves an activity through the status machine. Closing it
// purges a reminder that has not come due yet.
func (s *Service) ChangeStatus(ctx context.Context, actorID, id string, in StatusInput) (*models.ActivityWithAnimal, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	rearm := !in.ReminderDate.IsZero()
	if rearm && in.Status != models.ActivityPending {
		return nil, apperrors.Validation("reminderDate", "can only be set with status PENDING")
	}
	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var out *models.ActivityWithAnimal
	var from models.ActivityStatus
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		cur, err := tx.GetActivity(ctx, id, farmIDs)
		if err != nil {
			return translate(err, "activity")
		}
		a := cur.Activity
		from = a.Status

		closed, err := applyStatus(&a, in.Status, actorID, now)
		if err != nil {
			return err
		}
		if rearm {
			if in.ReminderDate.After(a.ActivityDate) {
				return errReminderAfterActivity
			}
			a.ReminderDate = in.ReminderDate.Ptr()
		}

		a.UpdatedAt = now
		if err := tx.UpdateActivity(ctx, &a); err != nil {
			return translate(err, "activity")
		}
		if rearm {
			if err := s.syncReminder(ctx, tx, a, now); err != nil {
				return err
			}
		}
		if closed {
			if err := s.purgeFutureReminder(ctx, tx, a.ID, now); err != nil {
				return err
			}
		}
		out = &models.ActivityWithAnimal{Activity: a, Animal: cur.Animal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("activity status changed", "activity_id", id, "from", from, "to", in.Status, "rearmed", rearm)
	return out, nil
}

// Delete removes the activity and its reminder.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetActivity(ctx, id, farmIDs); err != nil {
			return translate(err, "activity")
		}
		return translate(tx.DeleteActivity(ctx, id), "activity")
	})
	if err != nil {
		return err
	}
	s.logger.Info("activity deleted", "activity_id", id)
	return nil
}

// syncReminder makes the reminder row match a.ReminderDate. A written reminder
// is always re-armed.
func (s *Service) syncReminder(ctx context.Context, tx store.Store, a models.Activity, now time.Time) error {
	if a.ReminderDate == nil {
		if err := tx.DeleteReminder(ctx, a.ID); err != nil {
			return apperrors.Infrastructure(err, "deleting reminder")
		}
		return nil
	}
	r := models.ActivityReminder{
		ID:           s.ids.New(),
		ActivityID:   a.ID,
		FarmID:       a.FarmID,
		ReminderDate: *a.ReminderDate,
		ReminderTime: models.DefaultReminderTime,
		CreatedAt:    now,
	}
	if err := tx.UpsertReminder(ctx, &r); err != nil {
		return apperrors.Infrastructure(err, "saving reminder")
	}
	return nil
}

func (s *Service) purgeFutureReminder(ctx context.Context, tx store.Store, activityID string, now time.Time) error {
	deleted, err := tx.DeleteFutureReminder(ctx, activityID, now)
	if err != nil {
		return apperrors.Infrastructure(err, "purging reminder")
	}
	if deleted {
		s.logger.Debug("future reminder purged", "activity_id", activityID)
	}
	return nil
}

func (s *Service) accessibleFarms(ctx context.Context, actorID string) ([]string, error) {
	ids, err := s.store.ListAccessibleFarmIDs(ctx, actorID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing farms")
	}
	return ids, nil
}

func (in UpdateInput) validate() error {
	if in.Title.Set {
		title := strings.TrimSpace(in.Title.Value)
		if in.Title.Null || title == "" {
			return apperrors.Validation("title", "is required")
		}
		if len([]rune(title)) > 200 {
			return apperrors.Validation("title", "must be at most 200 characters")
		}
	}
	if len([]rune(in.Description.Value)) > 1000 {
		return apperrors.Validation("description", "must be at most 1000 characters")
	}
	if in.ActivityDate.Set && (in.ActivityDate.Null || in.ActivityDate.Value.IsZero()) {
		return apperrors.Validation("activityDate", "cannot be removed")
	}
	if v, ok := in.Status.Get(); ok && !v.Valid() {
		return apperrors.Validation("status", "must be one of [PENDING COMPLETED CANCELLED OVERDUE]")
	}
	return nil
}

func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var ae *apperrors.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(entity + " not found")
	default:
		return apperrors.Infrastructure(err, entity+" store failure")
	}
}
