package sqlstore

import (
	"context"
	"fmt"
	"time"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

const subscriptionColumns = `id, user_id, endpoint, p256dh, auth, is_active, last_used_at, created_at`

// UpsertSubscription reactivates an existing (user, endpoint) row with fresh keys;
// s is reloaded from the stored row.
func (s *Store) UpsertSubscription(ctx context.Context, sub *models.PushSubscription) error {
	sub.LastUsedAt = utcPtr(sub.LastUsedAt)
	sub.CreatedAt = utc(sub.CreatedAt)

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO push_subscriptions (`+subscriptionColumns+`)
		VALUES (:id, :user_id, :endpoint, :p256dh, :auth, :is_active, :last_used_at, :created_at)
		ON CONFLICT(user_id, endpoint) DO UPDATE SET
			p256dh = excluded.p256dh,
			auth = excluded.auth,
			is_active = excluded.is_active,
			last_used_at = excluded.last_used_at`, sub)
	if err != nil {
		return fmt.Errorf("upserting push subscription: %w", translate(err))
	}

	var stored models.PushSubscription
	err = s.q.GetContext(ctx, &stored,
		`SELECT `+subscriptionColumns+` FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`,
		sub.UserID, sub.Endpoint)
	if err != nil {
		return fmt.Errorf("reloading push subscription: %w", translate(err))
	}
	*sub = stored
	return nil
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	err := s.q.SelectContext(ctx, &subs,
		`SELECT `+subscriptionColumns+` FROM push_subscriptions WHERE user_id = ? AND is_active = 1 ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Store) TouchSubscription(ctx context.Context, id string, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE push_subscriptions SET last_used_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touching push subscription %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("touching push subscription %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// DeactivateSubscription is idempotent.
func (s *Store) DeactivateSubscription(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `UPDATE push_subscriptions SET is_active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deactivating push subscription %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeactivateUserSubscriptions(ctx context.Context, userID, endpoint string) (int64, error) {
	query := `UPDATE push_subscriptions SET is_active = 0 WHERE user_id = ? AND is_active = 1`
	args := []any{userID}
	if endpoint != "" {
		query += ` AND endpoint = ?`
		args = append(args, endpoint)
	}

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivating push subscriptions of %s: %w", userID, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
