package activity

import (
	"time"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/models"
)

// transitions lists the statuses reachable from each status. Staying in the
// same status is always allowed.
var transitions = map[models.ActivityStatus][]models.ActivityStatus{
	models.ActivityPending:   {models.ActivityCompleted, models.ActivityCancelled, models.ActivityOverdue},
	models.ActivityOverdue:   {models.ActivityPending, models.ActivityCompleted, models.ActivityCancelled},
	models.ActivityCompleted: {models.ActivityPending},
	models.ActivityCancelled: {models.ActivityPending},
}

// CanTransition reports whether an activity in from may move to to.
func CanTransition(from, to models.ActivityStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// applyStatus moves a to status, recording the completer when it closes and
// clearing completion when it opens again. It reports whether a was closed by
// this call.
func applyStatus(a *models.Activity, to models.ActivityStatus, actorID string, now time.Time) (bool, error) {
	from := a.Status
	if !to.Valid() {
		return false, apperrors.Validationf("status", "must be one of [%s %s %s %s]",
			models.ActivityPending, models.ActivityCompleted, models.ActivityCancelled, models.ActivityOverdue)
	}
	if !CanTransition(from, to) {
		return false, apperrors.Validationf("status", "cannot change from %s to %s", from, to)
	}
	if from == to {
		return false, nil
	}

	a.Status = to
	if to.Closed() {
		actor := actorID
		a.CompletedBy = &actor
		a.CompletedAt = &now
		return true, nil
	}
	a.CompletedBy = nil
	a.CompletedAt = nil
	return false, nil
}
