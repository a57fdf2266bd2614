// Package subscription manages a user's push endpoints and the delivery
// bookkeeping shared by every push send.
package subscription

import (
	"context"
	"errors"
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/push"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/validate"
)

type Keys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Input is the browser's PushSubscription JSON.
type Input struct {
	Endpoint string `json:"endpoint" validate:"required,http_url"`
	Keys     Keys   `json:"keys"`
}

type TestInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=1000"`
}

// Failure is one subscription that could not be reached.
type Failure struct {
	SubscriptionID string `json:"subscriptionId"`
	Endpoint       string `json:"endpoint"`
	StatusCode     int    `json:"statusCode,omitempty"`
	Error          string `json:"error"`
	Permanent      bool   `json:"permanent"`
}

// Tally summarises one payload delivered to a set of subscriptions.
type Tally struct {
	Attempted   int       `json:"attempted"`
	Delivered   int       `json:"success"`
	Failed      int       `json:"failed"`
	Deactivated int       `json:"deactivated"`
	Failures    []Failure `json:"errors,omitempty"`
}

type Config struct {
	Workers     int
	SendTimeout time.Duration
	Icon        string
}

type Registry struct {
	store  store.Store
	fanout *push.Fanout
	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
	icon   string
}

func NewRegistry(st store.Store, sender push.Sender, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger, cfg Config) *Registry {
	return &Registry{
		store:  st,
		fanout: push.NewFanout(sender, cfg.Workers, cfg.SendTimeout),
		clock:  clk,
		ids:    ids,
		logger: logger.With("component", "subscription"),
		icon:   cfg.Icon,
	}
}

// Subscribe registers or reactivates the endpoint for userID, then sends a
// best-effort welcome push.
func (r *Registry) Subscribe(ctx context.Context, userID string, in Input) (*models.PushSubscription, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	sub := models.PushSubscription{
		ID:         r.ids.New(),
		UserID:     userID,
		Endpoint:   in.Endpoint,
		P256dh:     in.Keys.P256dh,
		Auth:       in.Keys.Auth,
		IsActive:   true,
		LastUsedAt: &now,
		CreatedAt:  now,
	}
	if err := r.store.UpsertSubscription(ctx, &sub); err != nil {
		return nil, apperrors.Infrastructure(err, "saving push subscription")
	}

	res := r.fanout.Send(ctx, []push.Target{target(sub)}, push.WelcomePayload(r.icon))
	if err := res[0].Err; err != nil {
		r.logger.Warn("welcome push failed", "subscription_id", sub.ID, "error", err)
	}

	return &sub, nil
}

// Unsubscribe deactivates the user's endpoint, or all endpoints when endpoint
// is empty. Deactivating nothing is not an error.
func (r *Registry) Unsubscribe(ctx context.Context, userID, endpoint string) (int64, error) {
	n, err := r.store.DeactivateUserSubscriptions(ctx, userID, endpoint)
	if err != nil {
		return 0, apperrors.Infrastructure(err, "removing push subscription")
	}
	r.logger.Info("push subscriptions deactivated", "user_id", userID, "count", n, "all", endpoint == "")
	return n, nil
}

// SendTest pushes a system notification to every active endpoint of userID.
// No audit row is written.
func (r *Registry) SendTest(ctx context.Context, userID string, in TestInput) (*Tally, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	subs, err := r.store.ListActiveSubscriptions(ctx, userID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing push subscriptions")
	}
	if len(subs) == 0 {
		return nil, apperrors.NotFound("no active push subscriptions")
	}

	tally := r.Deliver(ctx, subs, push.SystemPayload(in.Title, in.Message, "", r.icon))
	return &tally, nil
}

// Deliver sends p to subs concurrently. Reached subscriptions get lastUsedAt
// bumped; permanently gone ones are deactivated. Bookkeeping errors are logged
// and never change the tally.
func (r *Registry) Deliver(ctx context.Context, subs []models.PushSubscription, p push.Payload) Tally {
	targets := make([]push.Target, len(subs))
	for i, s := range subs {
		targets[i] = target(s)
	}

	tally := Tally{Attempted: len(subs)}
	for _, res := range r.fanout.Send(ctx, targets, p) {
		id := res.Target.ID

		if res.OK() {
			tally.Delivered++
			if err := r.store.TouchSubscription(ctx, id, r.clock.Now()); err != nil {
				r.logger.Warn("failed to bump lastUsedAt", "subscription_id", id, "error", err)
			}
			continue
		}

		tally.Failed++
		f := Failure{
			SubscriptionID: id,
			Endpoint:       res.Target.Endpoint,
			Error:          res.Err.Error(),
			Permanent:      push.IsPermanent(res.Err),
		}
		var de *push.DeliveryError
		if errors.As(res.Err, &de) {
			f.StatusCode = de.StatusCode
		}

		if f.Permanent {
			if err := r.store.DeactivateSubscription(ctx, id); err != nil {
				r.logger.Error("failed to deactivate gone subscription", "subscription_id", id, "error", err)
			} else {
				tally.Deactivated++
				r.logger.Info("deactivated gone subscription", "subscription_id", id, "status", f.StatusCode)
			}
		} else {
			r.logger.Warn("push delivery failed", "subscription_id", id, "error", res.Err)
		}
		tally.Failures = append(tally.Failures, f)
	}
	return tally
}

func target(s models.PushSubscription) push.Target {
	return push.Target{ID: s.ID, Endpoint: s.Endpoint, P256dh: s.P256dh, Auth: s.Auth}
}
