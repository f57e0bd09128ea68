package handlers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

func (h *Handlers) HandleExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleExport")
		return
	}
	if !requirePrivate(ctx, b, update, "/export") {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	words, err := h.repo.ListWords(ctx, userID)
	if err != nil {
		logger.Error("failed to fetch words for export", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to export your vocabulary. Please try again later.")
		return
	}
	if len(words) == 0 {
		sendText(ctx, b, chatID, "You have no vocabulary to export.")
		return
	}

	rows := make([]importexport.Row, 0, len(words))
	for _, w := range words {
		rows = append(rows, importexport.Row{
			Term:         w.Term,
			Translation:  w.Translation,
			Status:       w.Status,
			EaseFactor:   w.EaseFactor,
			IntervalDays: w.IntervalDays,
			Repetitions:  w.Repetitions,
			NextReview:   w.NextReview,
			LastReviewed: w.LastReviewed,
		})
	}
	data, err := importexport.BuildExportCSV(rows)
	if err != nil {
		logger.Error("failed to build export CSV", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to export your vocabulary. Please try again later.")
		return
	}

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: importexport.ExportFilename(h.now()),
			Data:     bytes.NewReader(data),
		},
		Caption: fmt.Sprintf("Your vocabulary export (%d words).", len(words)),
	})
	if err != nil {
		logger.Error("failed to send export document", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to export your vocabulary. Please try again later.")
	}
}
