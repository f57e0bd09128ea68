package ui

import (
	"fmt"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/db"
)

func RenderReminderSettings(settings db.UserSettings) (string, *models.InlineKeyboardMarkup, error) {
	state := "off"
	if settings.RemindersEnabled {
		state = "on"
	}
	text := fmt.Sprintf(
		"Reminders\n- Daily reminder: %s\n- Time: %02d:00\n- Timezone: UTC%+d",
		state,
		settings.ReminderHour,
		settings.TimezoneOffsetHours,
	)

	toggleLabel := "Turn off"
	if !settings.RemindersEnabled {
		toggleLabel = "Turn on"
	}
	buttons := []struct {
		label  string
		action ReminderAction
	}{
		{toggleLabel, ReminderAction{Field: ReminderToggle}},
		{"Hour -1", ReminderAction{Field: ReminderHour, Delta: -1}},
		{"Hour +1", ReminderAction{Field: ReminderHour, Delta: 1}},
		{"UTC -1", ReminderAction{Field: ReminderTimezone, Delta: -1}},
		{"UTC +1", ReminderAction{Field: ReminderTimezone, Delta: 1}},
		{"Close", ReminderAction{Field: ReminderClose}},
	}
	row := make([]models.InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		data, err := BuildReminderCallback(button.action)
		if err != nil {
			return "", nil, err
		}
		row = append(row, models.InlineKeyboardButton{Text: button.label, CallbackData: data})
	}

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			row[:1],
			row[1:3],
			row[3:5],
			row[5:],
		},
	}
	return text, keyboard, nil
}

// ApplyReminderAction returns settings with action applied. Hours wrap
// around the clock; the timezone offset is clamped to UTC-12..UTC+14.
func ApplyReminderAction(settings db.UserSettings, action ReminderAction) db.UserSettings {
	switch action.Field {
	case ReminderToggle:
		settings.RemindersEnabled = !settings.RemindersEnabled
	case ReminderHour:
		settings.ReminderHour = ((settings.ReminderHour+action.Delta)%24 + 24) % 24
	case ReminderTimezone:
		settings.TimezoneOffsetHours = min(max(settings.TimezoneOffsetHours+action.Delta, -12), 14)
	}
	return settings
}
