package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

func (s *Store) UpsertReminder(ctx context.Context, r *models.ActivityReminder) error {
	if r.ReminderTime == "" {
		r.ReminderTime = models.DefaultReminderTime
	}

	_, err := s.col(colReminders).UpdateOne(s.ctx(ctx),
		bson.M{"activityID": r.ActivityID},
		bson.M{
			"$set": bson.M{
				"farmID":           r.FarmID,
				"reminderDate":     r.ReminderDate,
				"reminderTime":     r.ReminderTime,
				"notificationSent": r.NotificationSent,
				"sentAt":           r.SentAt,
			},
			"$setOnInsert": bson.M{"_id": r.ID, "createdAt": r.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
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
	if err := s.col(colReminders).FindOne(s.ctx(ctx), bson.M{"activityID": activityID}).Decode(&r); err != nil {
		return nil, fmt.Errorf("getting reminder for activity %s: %w", activityID, translate(err))
	}
	return &r, nil
}

func (s *Store) DeleteReminder(ctx context.Context, activityID string) error {
	if _, err := s.col(colReminders).DeleteOne(s.ctx(ctx), bson.M{"activityID": activityID}); err != nil {
		return fmt.Errorf("deleting reminder for activity %s: %w", activityID, err)
	}
	return nil
}

func (s *Store) DeleteFutureReminder(ctx context.Context, activityID string, from time.Time) (bool, error) {
	res, err := s.col(colReminders).DeleteOne(s.ctx(ctx),
		bson.M{"activityID": activityID, "reminderDate": bson.M{"$gte": from}})
	if err != nil {
		return false, fmt.Errorf("deleting future reminder for activity %s: %w", activityID, err)
	}
	return res.DeletedCount > 0, nil
}

// ListDueReminders resolves activities, animals and farms with one $in query each.
func (s *Store) ListDueReminders(ctx context.Context, from, to time.Time) ([]models.DueReminder, error) {
	cursor, err := s.col(colReminders).Find(s.ctx(ctx),
		bson.M{"reminderDate": bson.M{"$gte": from, "$lt": to}, "notificationSent": false},
		options.Find().SetSort(bson.D{{Key: "reminderDate", Value: 1}, {Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing due reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var reminders []models.ActivityReminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("decoding due reminders: %w", err)
	}
	due := []models.DueReminder{}
	if len(reminders) == 0 {
		return due, nil
	}

	activityIDs := make([]string, 0, len(reminders))
	for _, r := range reminders {
		activityIDs = append(activityIDs, r.ActivityID)
	}
	activities, err := s.findActivities(ctx,
		bson.M{"_id": bson.M{"$in": activityIDs}, "status": models.ActivityPending}, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Activity, len(activities))
	var animalIDs, farmIDs []string
	for _, a := range activities {
		byID[a.ID] = a
		animalIDs = append(animalIDs, a.AnimalID)
		farmIDs = append(farmIDs, a.FarmID)
	}

	animals, err := s.summaries(ctx, animalIDs)
	if err != nil {
		return nil, err
	}
	farms, err := s.farmsByID(ctx, farmIDs)
	if err != nil {
		return nil, err
	}

	for _, r := range reminders {
		a, ok := byID[r.ActivityID]
		if !ok {
			continue
		}
		farm, ok := farms[a.FarmID]
		if !ok {
			continue
		}
		due = append(due, models.DueReminder{Reminder: r, Activity: a, Animal: animals[a.AnimalID], Farm: farm})
	}
	return due, nil
}

func (s *Store) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	res, err := s.col(colReminders).UpdateOne(s.ctx(ctx), bson.M{"_id": id},
		bson.M{"$set": bson.M{"notificationSent": true, "sentAt": at}})
	if err != nil {
		return fmt.Errorf("marking reminder %s sent: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("marking reminder %s sent: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) farmsByID(ctx context.Context, ids []string) (map[string]models.Farm, error) {
	out := make(map[string]models.Farm, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.col(colFarms).Find(s.ctx(ctx), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("loading farms: %w", err)
	}
	defer cursor.Close(ctx)

	var farms []models.Farm
	if err := cursor.All(ctx, &farms); err != nil {
		return nil, fmt.Errorf("decoding farms: %w", err)
	}
	for _, f := range farms {
		out[f.ID] = f
	}
	return out, nil
}
