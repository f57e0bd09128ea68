package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/ui"
)

const remindersUsage = "Usage: /reminders [on|off|<hour 0-23> [utc offset]]"

// HandleReminders shows the reminder settings keyboard. With arguments it
// updates the settings directly: "on", "off" or an hour with an optional UTC
// offset.
func (h *Handlers) HandleReminders(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleReminders")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) == 0 || strings.SplitN(fields[0], "@", 2)[0] != "/reminders" {
		sendText(ctx, b, chatID, helpText)
		return
	}

	if _, err := h.repo.EnsureUser(ctx, userID); err != nil {
		logger.Error("failed to initialize user", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to load your settings. Please try again later.")
		return
	}
	settings, err := h.repo.Settings(ctx, userID)
	if err != nil {
		logger.Error("failed to load settings", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to load your settings. Please try again later.")
		return
	}

	if len(fields) > 1 {
		next, err := parseReminderArgs(settings, fields[1:])
		if err != nil {
			sendText(ctx, b, chatID, "Could not update reminders: "+err.Error()+".\n"+remindersUsage)
			return
		}
		if err := h.saveReminder(ctx, next); err != nil {
			logger.Error("failed to update reminder", "user_id", userID, "error", err)
			sendText(ctx, b, chatID, "Failed to update your settings. Please try again later.")
			return
		}
		settings = next
	}

	text, keyboard, err := ui.RenderReminderSettings(settings)
	if err != nil {
		logger.Error("failed to render reminder settings", "user_id", userID, "error", err)
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send reminder settings", "user_id", userID, "error", err)
	}
}

func parseReminderArgs(settings db.UserSettings, args []string) (db.UserSettings, error) {
	switch strings.ToLower(args[0]) {
	case "on":
		settings.RemindersEnabled = true
		return settings, nil
	case "off":
		settings.RemindersEnabled = false
		return settings, nil
	}

	hour, err := strconv.Atoi(args[0])
	if err != nil || hour < 0 || hour > 23 {
		return settings, fmt.Errorf("invalid hour %q", args[0])
	}
	settings.ReminderHour = hour
	settings.RemindersEnabled = true
	if len(args) > 1 {
		offset, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(args[1]), "UTC"))
		if err != nil || offset < -12 || offset > 14 {
			return settings, fmt.Errorf("invalid UTC offset %q", args[1])
		}
		settings.TimezoneOffsetHours = offset
	}
	return settings, nil
}

func (h *Handlers) saveReminder(ctx context.Context, settings db.UserSettings) error {
	return h.repo.UpdateReminder(ctx, settings.UserID, settings.RemindersEnabled, settings.ReminderHour, settings.TimezoneOffsetHours)
}

func (h *Handlers) HandleReminderCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleReminderCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answerCallback := func(text string) {
		if callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer reminder callback query", "error", err)
		}
	}

	action, err := ui.ParseReminderCallback(update.CallbackQuery.Data)
	if err != nil {
		answerCallback("Unknown action")
		return
	}
	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil || message.Message.Chat.ID == 0 {
		answerCallback("Message missing")
		return
	}
	msg := message.Message
	userID := update.CallbackQuery.From.ID

	if action.Field == ui.ReminderClose {
		answerCallback("")
		if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      "Reminder settings saved.",
			ReplyMarkup: &models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{},
			},
		}); err != nil {
			logger.Error("failed to close reminder settings", "user_id", userID, "error", err)
		}
		return
	}

	settings, err := h.repo.Settings(ctx, userID)
	if err != nil {
		logger.Error("failed to load settings", "user_id", userID, "error", err)
		answerCallback("Failed to load settings")
		return
	}
	settings = ui.ApplyReminderAction(settings, action)
	if err := h.saveReminder(ctx, settings); err != nil {
		logger.Error("failed to update reminder", "user_id", userID, "error", err)
		answerCallback("Failed to save settings")
		return
	}
	answerCallback("")

	text, keyboard, err := ui.RenderReminderSettings(settings)
	if err != nil {
		logger.Error("failed to render reminder settings", "user_id", userID, "error", err)
		return
	}
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to edit reminder settings", "user_id", userID, "error", err)
	}
}
