package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

const helpText = "Commands:\n" +
	"/review - review the words that are due\n" +
	"/learn - study words you have not seen yet\n" +
	"/mix - due words and new words together\n" +
	"/stop - end the current session\n" +
	"/stats - your progress\n" +
	"/reminders - daily reminder settings\n" +
	"/export - download your vocabulary\n\n" +
	"Send a CSV or XLSX file with term and translation columns to add words."

func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStart")
		return
	}
	userID := update.Message.From.ID

	created, err := h.repo.EnsureUser(ctx, userID)
	if err != nil {
		logger.Error("failed to initialize user", "user_id", userID, "error", err)
		sendText(ctx, b, update.Message.Chat.ID, "Failed to initialize your account. Please try again later.")
		return
	}
	if created {
		logger.Info("new user", "user_id", userID)
		sendText(ctx, b, update.Message.Chat.ID, "Welcome! Upload your first word list to get started.\n\n"+helpText)
		return
	}
	sendText(ctx, b, update.Message.Chat.ID, "Welcome back!\n\n"+helpText)
}

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleHelp")
		return
	}
	sendText(ctx, b, update.Message.Chat.ID, helpText)
}

// DefaultHandler imports attached documents and answers anything else with
// the command list.
func (h *Handlers) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Debug("ignoring update without a message in DefaultHandler")
		return
	}
	if update.Message.Document == nil {
		sendText(ctx, b, update.Message.Chat.ID, helpText)
		return
	}
	if !importexport.Supported(update.Message.Document.FileName) {
		sendText(ctx, b, update.Message.Chat.ID, "Unsupported file. Please upload a .csv or .xlsx file.")
		return
	}
	h.handleImport(ctx, b, update)
}
