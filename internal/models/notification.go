// internal/models/notification.go
package models

import "time"

type PushSubscription struct {
	ID         string     `bson:"_id" json:"id" db:"id"`
	UserID     string     `bson:"userID" json:"userId" db:"user_id"`
	Endpoint   string     `bson:"endpoint" json:"endpoint" db:"endpoint"`
	P256dh     string     `bson:"p256dh" json:"-" db:"p256dh"`
	Auth       string     `bson:"auth" json:"-" db:"auth"`
	IsActive   bool       `bson:"isActive" json:"isActive" db:"is_active"`
	LastUsedAt *time.Time `bson:"lastUsedAt,omitempty" json:"lastUsedAt" db:"last_used_at"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt" db:"created_at"`
}

// Notification is an append-only audit row: one per dispatch attempt per activity.
type Notification struct {
	ID         string           `bson:"_id" json:"id" db:"id"`
	UserID     string           `bson:"userID" json:"userId" db:"user_id"`
	FarmID     string           `bson:"farmID" json:"farmId" db:"farm_id"`
	ActivityID *string          `bson:"activityID,omitempty" json:"activityId" db:"activity_id"`
	Type       NotificationType `bson:"notificationType" json:"notificationType" db:"notification_type"`
	Title      string           `bson:"title" json:"title" db:"title"`
	Message    string           `bson:"message" json:"message" db:"message"`
	IsRead     bool             `bson:"isRead" json:"isRead" db:"is_read"`
	PushSent   bool             `bson:"pushSent" json:"pushSent" db:"push_sent"`
	PushSentAt *time.Time       `bson:"pushSentAt,omitempty" json:"pushSentAt" db:"push_sent_at"`
	CreatedAt  time.Time        `bson:"createdAt" json:"createdAt" db:"created_at"`
}
