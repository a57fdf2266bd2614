package push

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderPayload(t *testing.T) {
	p := ReminderPayload("act-1", "ฉีดวัคซีน", "ทองคำ", "BF20250110001", "")

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "ฟาร์มแจ้งเตือน",
		"body": "ทองคำ: ฉีดวัคซีน",
		"icon": "/jaothui-logo.png",
		"data": {
			"url": "/dashboard/activities/act-1?returnTo=notification",
			"activityId": "act-1",
			"animalId": "BF20250110001"
		},
		"tag": "reminder-act-1"
	}`, string(out))
}

func TestSystemPayload(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		icon    string
		wantURL string
		want    string
	}{
		{"defaults", "", "", "/dashboard", DefaultIcon},
		{"explicit", "/dashboard/animals", "https://cdn.example/icon.png", "/dashboard/animals", "https://cdn.example/icon.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := SystemPayload("Test", "hello", tt.url, tt.icon)
			assert.Equal(t, "hello", p.Body)
			assert.Equal(t, "system-notification", p.Tag)
			assert.Equal(t, tt.wantURL, p.Data.URL)
			assert.Equal(t, tt.want, p.Icon)
		})
	}

	w := WelcomePayload("")
	assert.Equal(t, WelcomeTitle, w.Title)
	assert.Equal(t, WelcomeMessage, w.Body)
}
