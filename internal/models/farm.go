// internal/models/farm.go
package models

import "time"

type Farm struct {
	ID        string    `bson:"_id" json:"id" db:"id"`
	OwnerID   string    `bson:"ownerID" json:"ownerId" db:"owner_id"`
	FarmName  string    `bson:"farmName" json:"farmName" db:"farm_name"`
	Province  string    `bson:"province" json:"province" db:"province"`
	FarmCode  string    `bson:"farmCode" json:"farmCode" db:"farm_code"` // e.g. "FM1736467200000"
	CreatedAt time.Time `bson:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}

type FarmMember struct {
	ID        string     `bson:"_id" json:"id" db:"id"`
	FarmID    string     `bson:"farmID" json:"farmId" db:"farm_id"`
	UserID    string     `bson:"userID" json:"userId" db:"user_id"`
	Role      MemberRole `bson:"role" json:"role" db:"role"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt" db:"created_at"`
}
