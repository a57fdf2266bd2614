// internal/models/enums.go
package models

// AnimalType is the species of an animal.
type AnimalType string

const (
	AnimalTypeBuffalo AnimalType = "BUFFALO"
	AnimalTypeChicken AnimalType = "CHICKEN"
	AnimalTypeCow     AnimalType = "COW"
	AnimalTypePig     AnimalType = "PIG"
	AnimalTypeHorse   AnimalType = "HORSE"
)

// AnimalTypes lists every supported type in display order.
var AnimalTypes = []AnimalType{
	AnimalTypeBuffalo,
	AnimalTypeChicken,
	AnimalTypeCow,
	AnimalTypePig,
	AnimalTypeHorse,
}

func (t AnimalType) Valid() bool {
	for _, v := range AnimalTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

type AnimalStatus string

const (
	AnimalStatusActive      AnimalStatus = "ACTIVE"
	AnimalStatusSold        AnimalStatus = "SOLD"
	AnimalStatusDeceased    AnimalStatus = "DECEASED"
	AnimalStatusTransferred AnimalStatus = "TRANSFERRED"
)

func (s AnimalStatus) Valid() bool {
	switch s {
	case AnimalStatusActive, AnimalStatusSold, AnimalStatusDeceased, AnimalStatusTransferred:
		return true
	}
	return false
}

type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "PENDING"
	ActivityCompleted ActivityStatus = "COMPLETED"
	ActivityCancelled ActivityStatus = "CANCELLED"
	// ActivityOverdue is a display label. Nothing assigns it automatically.
	ActivityOverdue ActivityStatus = "OVERDUE"
)

func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityPending, ActivityCompleted, ActivityCancelled, ActivityOverdue:
		return true
	}
	return false
}

// Closed reports whether the status records a completer.
func (s ActivityStatus) Closed() bool {
	return s == ActivityCompleted || s == ActivityCancelled
}

type NotificationType string

const (
	NotificationReminder       NotificationType = "REMINDER"
	NotificationSystem         NotificationType = "SYSTEM"
	NotificationActivityUpdate NotificationType = "ACTIVITY_UPDATE"
)

type MemberRole string

const (
	RoleOwner   MemberRole = "OWNER"
	RoleManager MemberRole = "MANAGER"
	RoleWorker  MemberRole = "WORKER"
)
