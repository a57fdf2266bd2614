package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("reminderDate", "after activity date"), KindValidation},
		{"not found", NotFound("activity not found"), KindNotFound},
		{"conflict", Conflict("duplicate"), KindConflict},
		{"unauthorized", Unauthorized("missing token"), KindUnauthorized},
		{"delivery", Delivery(base, "push failed"), KindDelivery},
		{"wrapped infrastructure", fmt.Errorf("scan: %w", Infrastructure(base, "query reminders")), KindInfrastructure},
		{"plain error", base, KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "reminderDate: must not be after activityDate",
		Validation("reminderDate", "must not be after activityDate").Error())
	assert.Equal(t, "query reminders: connection refused",
		Infrastructure(errors.New("connection refused"), "query reminders").Error())
	assert.True(t, errors.Is(Infrastructure(errBase, "x"), errBase))
	assert.True(t, Is(NotFound("x"), KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
}

var errBase = errors.New("base")
