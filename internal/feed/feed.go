// Package feed builds the upcoming-reminder list shown in the app's
// notification tab.
package feed

import (
	"context"
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/push"
	"jaothui-api-server/internal/store"
)

// Horizon is how far ahead the feed looks.
const Horizon = 7 * 24 * time.Hour

const typeReminder = "reminder"

type Item struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Message      string                `json:"message"`
	ActivityDate time.Time             `json:"activityDate"`
	ReminderDate time.Time             `json:"reminderDate"`
	Status       models.ActivityStatus `json:"status"`
	Animal       models.AnimalSummary  `json:"animal"`
	IsRead       bool                  `json:"isRead"`
	Type         string                `json:"type"`
}

type Builder struct {
	store store.Store
	clock clock.Clock
}

func NewBuilder(st store.Store, clk clock.Clock) *Builder {
	return &Builder{store: st, clock: clk}
}

// ListUpcoming returns PENDING activities on farms owned by userID whose
// reminder falls within the next seven days, soonest first.
func (b *Builder) ListUpcoming(ctx context.Context, userID string) ([]Item, error) {
	farms, err := b.store.ListOwnedFarms(ctx, userID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing farms")
	}
	items := []Item{}
	if len(farms) == 0 {
		return items, nil
	}

	ids := make([]string, len(farms))
	for i, f := range farms {
		ids[i] = f.ID
	}

	now := b.clock.Now()
	activities, err := b.store.ListUpcomingActivities(ctx, ids, now, now.Add(Horizon))
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing upcoming activities")
	}

	for _, a := range activities {
		if a.ReminderDate == nil {
			continue
		}
		items = append(items, Item{
			ID:           a.ID,
			Title:        a.Title,
			Message:      push.ReminderMessage(a.Animal.Name, a.Title),
			ActivityDate: a.ActivityDate,
			ReminderDate: *a.ReminderDate,
			Status:       a.Status,
			Animal:       a.Animal,
			Type:         typeReminder,
		})
	}
	return items, nil
}
