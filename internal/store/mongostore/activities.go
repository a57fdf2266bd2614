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

var activitySortFields = map[string]string{
	"activity_date": "activityDate",
	"created_at":    "createdAt",
	"title":         "title",
	"reminder_date": "reminderDate",
}

func (s *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	if _, err := s.col(colActivities).InsertOne(s.ctx(ctx), a); err != nil {
		return fmt.Errorf("creating activity: %w", translate(err))
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id string, farmIDs []string) (*models.ActivityWithAnimal, error) {
	if len(farmIDs) == 0 {
		return nil, store.ErrNotFound
	}
	var a models.Activity
	err := s.col(colActivities).FindOne(s.ctx(ctx), bson.M{"_id": id, "farmID": bson.M{"$in": farmIDs}}).Decode(&a)
	if err != nil {
		return nil, fmt.Errorf("getting activity %s: %w", id, translate(err))
	}

	joined, err := s.withAnimals(ctx, []models.Activity{a})
	if err != nil {
		return nil, err
	}
	return &joined[0], nil
}

func (s *Store) ListActivities(ctx context.Context, f store.ActivityFilter) ([]models.ActivityWithAnimal, int, error) {
	if len(f.FarmIDs) == 0 {
		return []models.ActivityWithAnimal{}, 0, nil
	}

	filter := bson.M{"farmID": bson.M{"$in": f.FarmIDs}}
	if f.AnimalID != nil {
		filter["animalID"] = *f.AnimalID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lte"] = *f.To
		}
		filter["activityDate"] = rng
	}
	if f.HasReminder != nil {
		if *f.HasReminder {
			filter["reminderDate"] = bson.M{"$type": "date"}
		} else {
			filter["reminderDate"] = bson.M{"$not": bson.M{"$type": "date"}}
		}
	}

	total, err := s.col(colActivities).CountDocuments(s.ctx(ctx), filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting activities: %w", err)
	}

	activities, err := s.findActivities(ctx, filter,
		findOptions(sortField(activitySortFields, f.SortBy, "activity_date"), f.SortDesc, f.Limit, f.Offset))
	if err != nil {
		return nil, 0, err
	}

	joined, err := s.withAnimals(ctx, activities)
	if err != nil {
		return nil, 0, err
	}
	return joined, int(total), nil
}

func (s *Store) UpdateActivity(ctx context.Context, a *models.Activity) error {
	res, err := s.col(colActivities).ReplaceOne(s.ctx(ctx), bson.M{"_id": a.ID}, a)
	if err != nil {
		return fmt.Errorf("updating activity %s: %w", a.ID, translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating activity %s: %w", a.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	if err := s.DeleteReminder(ctx, id); err != nil {
		return err
	}
	res, err := s.col(colActivities).DeleteOne(s.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting activity %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("deleting activity %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUpcomingActivities(ctx context.Context, farmIDs []string, from, to time.Time) ([]models.ActivityWithAnimal, error) {
	if len(farmIDs) == 0 {
		return []models.ActivityWithAnimal{}, nil
	}

	activities, err := s.findActivities(ctx,
		bson.M{
			"farmID":       bson.M{"$in": farmIDs},
			"status":       models.ActivityPending,
			"reminderDate": bson.M{"$gte": from, "$lte": to},
		},
		options.Find().SetSort(bson.D{{Key: "reminderDate", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return s.withAnimals(ctx, activities)
}

func (s *Store) findActivities(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Activity, error) {
	cursor, err := s.col(colActivities).Find(s.ctx(ctx), filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}
	return activities, nil
}

func (s *Store) withAnimals(ctx context.Context, activities []models.Activity) ([]models.ActivityWithAnimal, error) {
	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.AnimalID)
	}
	animals, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ActivityWithAnimal, 0, len(activities))
	for _, a := range activities {
		out = append(out, models.ActivityWithAnimal{Activity: a, Animal: animals[a.AnimalID]})
	}
	return out, nil
}
