// internal/models/animal.go
package models

import "time"

type Animal struct {
	ID         string       `bson:"_id" json:"id" db:"id"`
	FarmID     string       `bson:"farmID" json:"farmId" db:"farm_id"`
	AnimalID   string       `bson:"animalID" json:"animalId" db:"animal_code"` // farm-scoped code, e.g. "BF20250110001"
	AnimalType AnimalType   `bson:"animalType" json:"animalType" db:"animal_type"`
	Name       string       `bson:"name" json:"name" db:"name"`
	Sex        *Sex         `bson:"sex,omitempty" json:"sex" db:"sex"`
	BirthDate  *time.Time   `bson:"birthDate,omitempty" json:"birthDate" db:"birth_date"`
	Color      string       `bson:"color" json:"color" db:"color"`
	WeightKg   *int         `bson:"weightKg,omitempty" json:"weightKg" db:"weight_kg"`
	HeightCm   *int         `bson:"heightCm,omitempty" json:"heightCm" db:"height_cm"`
	MotherName string       `bson:"motherName" json:"motherName" db:"mother_name"`
	FatherName string       `bson:"fatherName" json:"fatherName" db:"father_name"`
	ImageURL   string       `bson:"imageURL" json:"imageUrl" db:"image_url"`
	Status     AnimalStatus `bson:"status" json:"status" db:"status"`
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time    `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}

// AnimalSummary is the slice of an animal embedded in activity and feed responses.
type AnimalSummary struct {
	ID         string     `bson:"_id" json:"id" db:"id"`
	Name       string     `bson:"name" json:"name" db:"name"`
	AnimalID   string     `bson:"animalID" json:"animalId" db:"animal_code"`
	AnimalType AnimalType `bson:"animalType" json:"animalType" db:"animal_type"`
}

func (a Animal) Summary() AnimalSummary {
	return AnimalSummary{ID: a.ID, Name: a.Name, AnimalID: a.AnimalID, AnimalType: a.AnimalType}
}
