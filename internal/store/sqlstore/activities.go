package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

var (
	activityFields = []string{
		"id", "farm_id", "animal_id", "title", "description", "activity_date", "reminder_date",
		"status", "created_by", "completed_by", "completed_at", "created_at", "updated_at",
	}
	animalSummaryFields = []string{"id", "name", "animal_code", "animal_type"}

	activityWithAnimalColumns = columns("a", "", activityFields...) + ", " +
		columns("an", "animal", animalSummaryFields...)
)

const activityFrom = ` FROM activities a JOIN animals an ON an.id = a.animal_id`

func (s *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	normaliseActivity(a)

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO activities (`+strings.Join(activityFields, ", ")+`) VALUES (
			:id, :farm_id, :animal_id, :title, :description, :activity_date, :reminder_date,
			:status, :created_by, :completed_by, :completed_at, :created_at, :updated_at
		)`, a)
	if err != nil {
		return fmt.Errorf("creating activity: %w", translate(err))
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id string, farmIDs []string) (*models.ActivityWithAnimal, error) {
	if len(farmIDs) == 0 {
		return nil, store.ErrNotFound
	}
	q, args, err := in(`SELECT `+activityWithAnimalColumns+activityFrom+` WHERE a.id = ? AND a.farm_id IN (?)`, id, farmIDs)
	if err != nil {
		return nil, err
	}

	var a models.ActivityWithAnimal
	if err := s.q.GetContext(ctx, &a, q, args...); err != nil {
		return nil, fmt.Errorf("getting activity %s: %w", id, translate(err))
	}
	return &a, nil
}

func (s *Store) ListActivities(ctx context.Context, f store.ActivityFilter) ([]models.ActivityWithAnimal, int, error) {
	activities := []models.ActivityWithAnimal{}
	if len(f.FarmIDs) == 0 {
		return activities, 0, nil
	}

	conditions := []string{"a.farm_id IN (?)"}
	args := []any{f.FarmIDs}

	if f.AnimalID != nil {
		conditions = append(conditions, "a.animal_id = ?")
		args = append(args, *f.AnimalID)
	}
	if f.Status != nil {
		conditions = append(conditions, "a.status = ?")
		args = append(args, *f.Status)
	}
	if f.From != nil {
		conditions = append(conditions, "a.activity_date >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		conditions = append(conditions, "a.activity_date <= ?")
		args = append(args, f.To.UTC())
	}
	if f.HasReminder != nil {
		if *f.HasReminder {
			conditions = append(conditions, "a.reminder_date IS NOT NULL")
		} else {
			conditions = append(conditions, "a.reminder_date IS NULL")
		}
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	q, qargs, err := in(`SELECT COUNT(*)`+activityFrom+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.q.GetContext(ctx, &total, q, qargs...); err != nil {
		return nil, 0, fmt.Errorf("counting activities: %w", err)
	}

	sorts := map[string]bool{"activity_date": true, "created_at": true, "title": true, "reminder_date": true}
	q, qargs, err = in(`SELECT `+activityWithAnimalColumns+activityFrom+where+
		orderBy("a", sorts, f.SortBy, "activity_date", f.SortDesc)+
		page(f.Limit, f.Offset), args...)
	if err != nil {
		return nil, 0, err
	}
	if err := s.q.SelectContext(ctx, &activities, q, qargs...); err != nil {
		return nil, 0, fmt.Errorf("listing activities: %w", err)
	}
	return activities, total, nil
}

func (s *Store) UpdateActivity(ctx context.Context, a *models.Activity) error {
	normaliseActivity(a)

	res, err := s.q.NamedExecContext(ctx, `
		UPDATE activities SET
			title = :title, description = :description,
			activity_date = :activity_date, reminder_date = :reminder_date,
			status = :status, completed_by = :completed_by, completed_at = :completed_at,
			updated_at = :updated_at
		WHERE id = :id`, a)
	if err != nil {
		return fmt.Errorf("updating activity %s: %w", a.ID, translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating activity %s: %w", a.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM activity_reminders WHERE activity_id = ?`, id); err != nil {
		return fmt.Errorf("deleting reminder of activity %s: %w", id, err)
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting activity %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting activity %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUpcomingActivities(ctx context.Context, farmIDs []string, from, to time.Time) ([]models.ActivityWithAnimal, error) {
	activities := []models.ActivityWithAnimal{}
	if len(farmIDs) == 0 {
		return activities, nil
	}

	q, args, err := in(`SELECT `+activityWithAnimalColumns+activityFrom+`
		WHERE a.farm_id IN (?)
			AND a.status = ?
			AND a.reminder_date IS NOT NULL
			AND a.reminder_date >= ? AND a.reminder_date <= ?
		ORDER BY a.reminder_date ASC, a.id ASC`,
		farmIDs, models.ActivityPending, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	if err := s.q.SelectContext(ctx, &activities, q, args...); err != nil {
		return nil, fmt.Errorf("listing upcoming activities: %w", err)
	}
	return activities, nil
}

func normaliseActivity(a *models.Activity) {
	a.ActivityDate = utc(a.ActivityDate)
	a.ReminderDate = utcPtr(a.ReminderDate)
	a.CompletedAt = utcPtr(a.CompletedAt)
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
}
