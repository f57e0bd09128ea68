package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/ui"
)

func (h *Handlers) HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStats")
		return
	}
	userID := update.Message.From.ID
	stats, err := h.repo.Stats(ctx, userID, h.now())
	if err != nil {
		logger.Error("failed to load stats", "user_id", userID, "error", err)
		sendText(ctx, b, update.Message.Chat.ID, "Failed to load your progress. Please try again later.")
		return
	}
	sendText(ctx, b, update.Message.Chat.ID, ui.RenderStats(stats))
}
