package push

import "fmt"

const (
	DefaultIcon = "/jaothui-logo.png"
	// ReminderTitle is the banner shown on every activity reminder.
	ReminderTitle = "ฟาร์มแจ้งเตือน"

	WelcomeTitle   = "ยินดีต้อนรับ!"
	WelcomeMessage = "คุณได้เปิดใช้งานการแจ้งเตือนสำหรับฟาร์มแล้ว"

	systemTag  = "system-notification"
	defaultURL = "/dashboard"
)

// Payload is the JSON document the service worker receives.
type Payload struct {
	Title string       `json:"title"`
	Body  string       `json:"body"`
	Icon  string       `json:"icon,omitempty"`
	Data  *PayloadData `json:"data,omitempty"`
	Tag   string       `json:"tag,omitempty"`
}

type PayloadData struct {
	URL        string `json:"url,omitempty"`
	ActivityID string `json:"activityId,omitempty"`
	AnimalID   string `json:"animalId,omitempty"`
}

// ReminderMessage is the body shared by push payloads, audit rows and the feed.
func ReminderMessage(animalName, activityTitle string) string {
	return animalName + ": " + activityTitle
}

// ReminderPayload builds the reminder for an activity. animalCode is the
// farm-scoped code, not the animal's row id.
func ReminderPayload(activityID, activityTitle, animalName, animalCode, icon string) Payload {
	return Payload{
		Title: ReminderTitle,
		Body:  ReminderMessage(animalName, activityTitle),
		Icon:  iconOrDefault(icon),
		Data: &PayloadData{
			URL:        fmt.Sprintf("/dashboard/activities/%s?returnTo=notification", activityID),
			ActivityID: activityID,
			AnimalID:   animalCode,
		},
		Tag: "reminder-" + activityID,
	}
}

func SystemPayload(title, message, url, icon string) Payload {
	if url == "" {
		url = defaultURL
	}
	return Payload{
		Title: title,
		Body:  message,
		Icon:  iconOrDefault(icon),
		Data:  &PayloadData{URL: url},
		Tag:   systemTag,
	}
}

func WelcomePayload(icon string) Payload {
	return SystemPayload(WelcomeTitle, WelcomeMessage, "", icon)
}

func iconOrDefault(icon string) string {
	if icon == "" {
		return DefaultIcon
	}
	return icon
}
