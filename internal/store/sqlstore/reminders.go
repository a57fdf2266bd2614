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
	reminderFields = []string{
		"id", "activity_id", "farm_id", "reminder_date", "reminder_time", "notification_sent", "sent_at", "created_at",
	}
	farmFields = []string{"id", "owner_id", "farm_name", "province", "farm_code", "created_at", "updated_at"}

	dueReminderColumns = strings.Join([]string{
		columns("r", "reminder", reminderFields...),
		columns("a", "activity", activityFields...),
		columns("an", "animal", animalSummaryFields...),
		columns("f", "farm", farmFields...),
	}, ", ")
)

// UpsertReminder writes r keyed by activity id. An update re-arms the reminder
// from r's NotificationSent and SentAt; r is reloaded from the stored row.
func (s *Store) UpsertReminder(ctx context.Context, r *models.ActivityReminder) error {
	r.ReminderDate = utc(r.ReminderDate)
	r.SentAt = utcPtr(r.SentAt)
	r.CreatedAt = utc(r.CreatedAt)
	if r.ReminderTime == "" {
		r.ReminderTime = models.DefaultReminderTime
	}

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO activity_reminders (`+strings.Join(reminderFields, ", ")+`) VALUES (
			:id, :activity_id, :farm_id, :reminder_date, :reminder_time, :notification_sent, :sent_at, :created_at
		)
		ON CONFLICT(activity_id) DO UPDATE SET
			farm_id = excluded.farm_id,
			reminder_date = excluded.reminder_date,
			reminder_time = excluded.reminder_time,
			notification_sent = excluded.notification_sent,
			sent_at = excluded.sent_at`, r)
	if err != nil {
		return fmt.Errorf("upserting reminder for activity %s: %w", r.ActivityID, translate(err))
	}

	stored, err := s.GetReminder(ctx, r.ActivityID)
	if err != nil {
		return err
	}
	*r = *stored
	return nil
}

func (s *Store) GetReminder(ctx context.Context, activityID string) (*models.ActivityReminder, error) {
	var r models.ActivityReminder
	err := s.q.GetContext(ctx, &r,
		`SELECT `+strings.Join(reminderFields, ", ")+` FROM activity_reminders WHERE activity_id = ?`, activityID)
	if err != nil {
		return nil, fmt.Errorf("getting reminder for activity %s: %w", activityID, translate(err))
	}
	return &r, nil
}

// DeleteReminder is a no-op when the activity has no reminder.
func (s *Store) DeleteReminder(ctx context.Context, activityID string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM activity_reminders WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("deleting reminder for activity %s: %w", activityID, err)
	}
	return nil
}

func (s *Store) DeleteFutureReminder(ctx context.Context, activityID string, from time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM activity_reminders WHERE activity_id = ? AND reminder_date >= ?`, activityID, from.UTC())
	if err != nil {
		return false, fmt.Errorf("deleting future reminder for activity %s: %w", activityID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) ListDueReminders(ctx context.Context, from, to time.Time) ([]models.DueReminder, error) {
	due := []models.DueReminder{}
	err := s.q.SelectContext(ctx, &due, `
		SELECT `+dueReminderColumns+`
		FROM activity_reminders r
		JOIN activities a ON a.id = r.activity_id
		JOIN animals an ON an.id = a.animal_id
		JOIN farms f ON f.id = a.farm_id
		WHERE r.reminder_date >= ? AND r.reminder_date < ?
			AND r.notification_sent = 0
			AND a.status = ?
		ORDER BY r.reminder_date ASC, a.created_at ASC`,
		from.UTC(), to.UTC(), models.ActivityPending)
	if err != nil {
		return nil, fmt.Errorf("listing due reminders: %w", err)
	}
	return due, nil
}

func (s *Store) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE activity_reminders SET notification_sent = 1, sent_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("marking reminder %s sent: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("marking reminder %s sent: %w", id, store.ErrNotFound)
	}
	return nil
}
