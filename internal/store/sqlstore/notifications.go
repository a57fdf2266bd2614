package sqlstore

import (
	"context"
	"fmt"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

const notificationColumns = `id, user_id, farm_id, activity_id, notification_type, title, message,
	is_read, push_sent, push_sent_at, created_at`

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.PushSentAt = utcPtr(n.PushSentAt)
	n.CreatedAt = utc(n.CreatedAt)

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`) VALUES (
			:id, :user_id, :farm_id, :activity_id, :notification_type, :title, :message,
			:is_read, :push_sent, :push_sent_at, :created_at
		)`, n)
	if err != nil {
		return fmt.Errorf("creating notification: %w", translate(err))
	}
	return nil
}

// ListNotifications returns the user's audit rows, newest first.
func (s *Store) ListNotifications(ctx context.Context, f store.NotificationFilter) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	args := []any{f.UserID}
	if f.Type != nil {
		query += ` AND notification_type = ?`
		args = append(args, *f.Type)
	}
	query += ` ORDER BY created_at DESC, id` + page(f.Limit, f.Offset)

	out := []models.Notification{}
	if err := s.q.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}
