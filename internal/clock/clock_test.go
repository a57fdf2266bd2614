package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"utc midday", time.Date(2025, 1, 10, 13, 45, 0, 0, time.UTC), time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"already midnight", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"local early morning is previous utc day", time.Date(2025, 1, 10, 5, 0, 0, 0, bangkok), time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(StartOfDay(tt.in)), "got %s", StartOfDay(tt.in))
		})
	}
}

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	a, b := g.New(), g.New()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
