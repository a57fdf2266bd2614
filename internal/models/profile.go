package models

import "time"

// Profile is the internal user record. ExternalUserID links it 1:1 to the identity provider subject.
type Profile struct {
	ID             string    `bson:"_id" json:"id" db:"id"`
	ExternalUserID string    `bson:"externalUserID" json:"externalUserId" db:"external_user_id"`
	FirstName      string    `bson:"firstName" json:"firstName" db:"first_name"`
	LastName       string    `bson:"lastName" json:"lastName" db:"last_name"`
	PhoneNumber    *string   `bson:"phoneNumber,omitempty" json:"phoneNumber" db:"phone_number"`
	AvatarURL      string    `bson:"avatarURL" json:"avatarUrl" db:"avatar_url"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}
