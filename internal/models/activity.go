// internal/models/activity.go
package models

import "time"

// DefaultReminderTime is the informational time-of-day stored on new reminders.
const DefaultReminderTime = "06:00"

type Activity struct {
	ID           string         `bson:"_id" json:"id" db:"id"`
	FarmID       string         `bson:"farmID" json:"farmId" db:"farm_id"`
	AnimalID     string         `bson:"animalID" json:"animalId" db:"animal_id"`
	Title        string         `bson:"title" json:"title" db:"title"`
	Description  string         `bson:"description" json:"description" db:"description"`
	ActivityDate time.Time      `bson:"activityDate" json:"activityDate" db:"activity_date"`
	ReminderDate *time.Time     `bson:"reminderDate,omitempty" json:"reminderDate" db:"reminder_date"`
	Status       ActivityStatus `bson:"status" json:"status" db:"status"`
	CreatedBy    string         `bson:"createdBy" json:"createdBy" db:"created_by"`
	CompletedBy  *string        `bson:"completedBy,omitempty" json:"completedBy" db:"completed_by"`
	CompletedAt  *time.Time     `bson:"completedAt,omitempty" json:"completedAt" db:"completed_at"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}

// ActivityWithAnimal joins an activity with the animal it targets.
type ActivityWithAnimal struct {
	Activity
	Animal AnimalSummary `json:"animal" db:"animal"`
}

type ActivityReminder struct {
	ID               string     `bson:"_id" json:"id" db:"id"`
	ActivityID       string     `bson:"activityID" json:"activityId" db:"activity_id"`
	FarmID           string     `bson:"farmID" json:"farmId" db:"farm_id"`
	ReminderDate     time.Time  `bson:"reminderDate" json:"reminderDate" db:"reminder_date"`
	ReminderTime     string     `bson:"reminderTime" json:"reminderTime" db:"reminder_time"`
	NotificationSent bool       `bson:"notificationSent" json:"notificationSent" db:"notification_sent"`
	SentAt           *time.Time `bson:"sentAt,omitempty" json:"sentAt" db:"sent_at"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt" db:"created_at"`
}

// DueReminder is one row of the daily scan: the reminder plus everything needed to notify.
type DueReminder struct {
	Reminder ActivityReminder `db:"reminder"`
	Activity Activity         `db:"activity"`
	Animal   AnimalSummary    `db:"animal"`
	Farm     Farm             `db:"farm"`
}
