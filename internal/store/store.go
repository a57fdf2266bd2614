package store

import (
	"context"
	"errors"
	"time"

	"jaothui-api-server/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a unique key.
	ErrDuplicate = errors.New("store: duplicate key")
)

// AnimalFilter controls filtering, sorting, and pagination for animal queries.
type AnimalFilter struct {
	FarmIDs    []string // required; empty matches nothing
	AnimalType *models.AnimalType
	Status     *models.AnimalStatus
	Query      *string // name or animal code
	SortBy     string  // "created_at", "name", "animal_code", "birth_date"
	SortDesc   bool
	Limit      int
	Offset     int
}

// ActivityFilter controls filtering, sorting, and pagination for activity queries.
type ActivityFilter struct {
	FarmIDs     []string // required; empty matches nothing
	AnimalID    *string
	Status      *models.ActivityStatus
	From        *time.Time // activity_date >= From
	To          *time.Time // activity_date <= To
	HasReminder *bool
	SortBy      string // "activity_date", "created_at", "title", "reminder_date"
	SortDesc    bool
	Limit       int
	Offset      int
}

type NotificationFilter struct {
	UserID string
	Type   *models.NotificationType
	Limit  int
	Offset int
}

// Store is the persistence boundary of the service. Implementations must be
// safe for concurrent use.
type Store interface {
	// WithTx runs fn against a transactional view of the store. fn's error
	// rolls the transaction back.
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error

	// === Profiles ===

	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByExternalID(ctx context.Context, externalID string) (*models.Profile, error)
	GetProfileByPhone(ctx context.Context, phone string) (*models.Profile, error)
	// UpsertProfile inserts or updates by ExternalUserID.
	UpsertProfile(ctx context.Context, p *models.Profile) error

	// === Farms ===

	CreateFarm(ctx context.Context, f *models.Farm) error
	AddFarmMember(ctx context.Context, m *models.FarmMember) error
	GetFarm(ctx context.Context, id string) (*models.Farm, error)
	ListOwnedFarms(ctx context.Context, ownerID string) ([]models.Farm, error)
	// ListAccessibleFarmIDs returns owned farms plus farms the user is a member of.
	ListAccessibleFarmIDs(ctx context.Context, userID string) ([]string, error)

	// === Animals ===

	CreateAnimal(ctx context.Context, a *models.Animal) error
	GetAnimal(ctx context.Context, id string, farmIDs []string) (*models.Animal, error)
	ListAnimals(ctx context.Context, f AnimalFilter) ([]models.Animal, int, error)
	ListAnimalCodes(ctx context.Context, farmID, prefix string) ([]string, error)
	AnimalCodeExists(ctx context.Context, farmID, code string) (bool, error)
	UpdateAnimal(ctx context.Context, a *models.Animal) error

	// === Activities ===

	CreateActivity(ctx context.Context, a *models.Activity) error
	GetActivity(ctx context.Context, id string, farmIDs []string) (*models.ActivityWithAnimal, error)
	ListActivities(ctx context.Context, f ActivityFilter) ([]models.ActivityWithAnimal, int, error)
	UpdateActivity(ctx context.Context, a *models.Activity) error
	// DeleteActivity removes the activity and its reminder.
	DeleteActivity(ctx context.Context, id string) error
	// ListUpcomingActivities returns PENDING activities of the given farms whose
	// reminder date lies in [from, to], ascending by reminder date.
	ListUpcomingActivities(ctx context.Context, farmIDs []string, from, to time.Time) ([]models.ActivityWithAnimal, error)

	// === Reminders ===

	// UpsertReminder inserts or replaces the reminder keyed by ActivityID.
	UpsertReminder(ctx context.Context, r *models.ActivityReminder) error
	GetReminder(ctx context.Context, activityID string) (*models.ActivityReminder, error)
	DeleteReminder(ctx context.Context, activityID string) error
	// DeleteFutureReminder removes the activity's reminder when its date is >= from.
	DeleteFutureReminder(ctx context.Context, activityID string, from time.Time) (bool, error)
	// ListDueReminders returns unsent reminders dated in [from, to) whose
	// activity is PENDING, ordered by reminder date.
	ListDueReminders(ctx context.Context, from, to time.Time) ([]models.DueReminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	// === Push subscriptions ===

	// UpsertSubscription inserts or reactivates the row keyed by (UserID, Endpoint).
	UpsertSubscription(ctx context.Context, s *models.PushSubscription) error
	ListActiveSubscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error)
	TouchSubscription(ctx context.Context, id string, at time.Time) error
	DeactivateSubscription(ctx context.Context, id string) error
	// DeactivateUserSubscriptions deactivates the user's row for endpoint, or
	// every row when endpoint is empty.
	DeactivateUserSubscriptions(ctx context.Context, userID, endpoint string) (int64, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error)
}
