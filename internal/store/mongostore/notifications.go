package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if _, err := s.col(colNotifications).InsertOne(s.ctx(ctx), n); err != nil {
		return fmt.Errorf("creating notification: %w", translate(err))
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, f store.NotificationFilter) ([]models.Notification, error) {
	filter := bson.M{"userID": f.UserID}
	if f.Type != nil {
		filter["notificationType"] = *f.Type
	}

	cursor, err := s.col(colNotifications).Find(s.ctx(ctx), filter, findOptions("createdAt", true, f.Limit, f.Offset))
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding notifications: %w", err)
	}
	return out, nil
}
