// Package reminder runs the daily scan that turns due activity reminders into
// push notifications and audit rows.
package reminder

import (
	"context"
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/push"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/subscription"
)

// Deliverer sends one payload to a set of subscriptions and does the
// per-subscription bookkeeping. *subscription.Registry implements it.
type Deliverer interface {
	Deliver(ctx context.Context, subs []models.PushSubscription, p push.Payload) subscription.Tally
}

// Notifier publishes in-app events to a user's open sockets.
type Notifier interface {
	Notify(userID string, v any)
}

type Config struct {
	// RunDeadline stops the run from starting new activities once elapsed. Zero disables it.
	RunDeadline time.Duration
	// CatchUpDays widens the scan window backwards to pick up unsent reminders
	// from missed runs. Zero scans today only.
	CatchUpDays int
	Icon        string
}

// Event is the in-app message published for each processed reminder.
type Event struct {
	Type       string    `json:"type"`
	ActivityID string    `json:"activityId"`
	FarmID     string    `json:"farmId"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	URL        string    `json:"url"`
	PushSent   bool      `json:"pushSent"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeliveryFailure is one error recorded during a run.
type DeliveryFailure struct {
	ActivityID     string `json:"activityId"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	StatusCode     int    `json:"statusCode,omitempty"`
	Error          string `json:"error"`
}

// Summary is the operator-facing result of one run.
type Summary struct {
	Timestamp           time.Time         `json:"timestamp"`
	Date                string            `json:"date"`
	TotalActivities     int               `json:"totalActivities"`
	NotificationsSent   int               `json:"notificationsSent"`
	NotificationsFailed int               `json:"notificationsFailed"`
	DevicesReached      int               `json:"devicesReached"`
	Skipped             int               `json:"skipped"`
	Partial             bool              `json:"partial"`
	Errors              []DeliveryFailure `json:"errors,omitempty"`
}

type Dispatcher struct {
	store     store.Store
	deliverer Deliverer
	notifier  Notifier
	clock     clock.Clock
	ids       clock.IDGenerator
	logger    logging.Logger
	cfg       Config
}

func NewDispatcher(st store.Store, d Deliverer, n Notifier, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger, cfg Config) *Dispatcher {
	if n == nil {
		n = nopNotifier{}
	}
	if cfg.CatchUpDays < 0 {
		cfg.CatchUpDays = 0
	}
	return &Dispatcher{
		store:     st,
		deliverer: d,
		notifier:  n,
		clock:     clk,
		ids:       ids,
		logger:    logger.With("component", "reminder"),
		cfg:       cfg,
	}
}

// Run scans reminders due today and notifies each activity's farm owner.
// Per-activity failures are recorded in the summary; only a failed scan
// query returns an error. Cancelling ctx stops the run before the next
// activity; an activity already started is delivered and recorded in full.
func (d *Dispatcher) Run(ctx context.Context) (*Summary, error) {
	start := d.clock.Now()
	today := clock.StartOfDay(start)
	from := today.AddDate(0, 0, -d.cfg.CatchUpDays)
	to := today.AddDate(0, 0, 1)

	d.logger.Info("reminder run started", "from", from, "to", to)

	due, err := d.store.ListDueReminders(ctx, from, to)
	if err != nil {
		d.logger.Error("reminder scan failed", "error", err)
		return nil, apperrors.Infrastructure(err, "querying due reminders")
	}

	sum := &Summary{
		Timestamp:       start,
		Date:            today.Format(time.DateOnly),
		TotalActivities: len(due),
	}

	for i, dr := range due {
		if d.expired(ctx, start) {
			sum.Skipped = len(due) - i
			sum.Partial = true
			d.logger.Warn("reminder run stopped early", "skipped", sum.Skipped)
			break
		}
		// the audit row and sent mark must land once a push has gone out
		d.process(context.WithoutCancel(ctx), dr, sum)
	}

	d.logger.Info("reminder run completed",
		"total", sum.TotalActivities,
		"sent", sum.NotificationsSent,
		"failed", sum.NotificationsFailed,
		"devices", sum.DevicesReached,
		"skipped", sum.Skipped,
		"errors", len(sum.Errors),
	)
	return sum, nil
}

func (d *Dispatcher) expired(ctx context.Context, start time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return d.cfg.RunDeadline > 0 && d.clock.Now().Sub(start) >= d.cfg.RunDeadline
}

func (d *Dispatcher) process(ctx context.Context, dr models.DueReminder, sum *Summary) {
	act, owner := dr.Activity, dr.Farm.OwnerID
	log := d.logger.With("activity_id", act.ID, "owner_id", owner)

	subs, err := d.store.ListActiveSubscriptions(ctx, owner)
	if err != nil {
		log.Error("listing subscriptions failed", "error", err)
		sum.NotificationsFailed++
		sum.Errors = append(sum.Errors, DeliveryFailure{ActivityID: act.ID, Error: err.Error()})
		return
	}

	payload := push.ReminderPayload(act.ID, act.Title, dr.Animal.Name, dr.Animal.AnimalID, d.cfg.Icon)

	var tally subscription.Tally
	if len(subs) == 0 {
		log.Info("owner has no active push subscriptions")
	} else {
		tally = d.deliverer.Deliver(ctx, subs, payload)
	}
	for _, f := range tally.Failures {
		sum.Errors = append(sum.Errors, DeliveryFailure{
			ActivityID:     act.ID,
			SubscriptionID: f.SubscriptionID,
			StatusCode:     f.StatusCode,
			Error:          f.Error,
		})
	}

	now := d.clock.Now()
	sent := tally.Delivered > 0
	if sent {
		sum.NotificationsSent++
		sum.DevicesReached += tally.Delivered
	} else {
		sum.NotificationsFailed++
	}

	activityID := act.ID
	n := models.Notification{
		ID:         d.ids.New(),
		UserID:     owner,
		FarmID:     dr.Farm.ID,
		ActivityID: &activityID,
		Type:       models.NotificationReminder,
		Title:      payload.Title,
		Message:    payload.Body,
		PushSent:   sent,
		CreatedAt:  now,
	}
	if sent {
		n.PushSentAt = &now
	}
	if err := d.store.CreateNotification(ctx, &n); err != nil {
		log.Error("writing notification record failed", "error", err)
		sum.Errors = append(sum.Errors, DeliveryFailure{ActivityID: act.ID, Error: err.Error()})
	}

	if err := d.store.MarkReminderSent(ctx, dr.Reminder.ID, now); err != nil {
		log.Error("marking reminder sent failed", "reminder_id", dr.Reminder.ID, "error", err)
		sum.Errors = append(sum.Errors, DeliveryFailure{ActivityID: act.ID, Error: err.Error()})
	}

	d.notifier.Notify(owner, Event{
		Type:       "reminder",
		ActivityID: act.ID,
		FarmID:     dr.Farm.ID,
		Title:      payload.Title,
		Message:    payload.Body,
		URL:        payload.Data.URL,
		PushSent:   sent,
		CreatedAt:  now,
	})

	log.Info("reminder processed", "devices", tally.Delivered, "failed", tally.Failed)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, any) {}
