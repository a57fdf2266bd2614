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

func (s *Store) UpsertSubscription(ctx context.Context, sub *models.PushSubscription) error {
	filter := bson.M{"userID": sub.UserID, "endpoint": sub.Endpoint}
	_, err := s.col(colSubscriptions).UpdateOne(s.ctx(ctx), filter,
		bson.M{
			"$set": bson.M{
				"p256dh":     sub.P256dh,
				"auth":       sub.Auth,
				"isActive":   sub.IsActive,
				"lastUsedAt": sub.LastUsedAt,
			},
			"$setOnInsert": bson.M{"_id": sub.ID, "createdAt": sub.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upserting push subscription: %w", translate(err))
	}

	var stored models.PushSubscription
	if err := s.col(colSubscriptions).FindOne(s.ctx(ctx), filter).Decode(&stored); err != nil {
		return fmt.Errorf("reloading push subscription: %w", translate(err))
	}
	*sub = stored
	return nil
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	cursor, err := s.col(colSubscriptions).Find(s.ctx(ctx), bson.M{"userID": userID, "isActive": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing push subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	subs := []models.PushSubscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decoding push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Store) TouchSubscription(ctx context.Context, id string, at time.Time) error {
	res, err := s.col(colSubscriptions).UpdateOne(s.ctx(ctx), bson.M{"_id": id}, bson.M{"$set": bson.M{"lastUsedAt": at}})
	if err != nil {
		return fmt.Errorf("touching push subscription %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("touching push subscription %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeactivateSubscription(ctx context.Context, id string) error {
	_, err := s.col(colSubscriptions).UpdateOne(s.ctx(ctx), bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return fmt.Errorf("deactivating push subscription %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeactivateUserSubscriptions(ctx context.Context, userID, endpoint string) (int64, error) {
	filter := bson.M{"userID": userID, "isActive": true}
	if endpoint != "" {
		filter["endpoint"] = endpoint
	}
	res, err := s.col(colSubscriptions).UpdateMany(s.ctx(ctx), filter, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return 0, fmt.Errorf("deactivating push subscriptions of %s: %w", userID, err)
	}
	return res.ModifiedCount, nil
}
