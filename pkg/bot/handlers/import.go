package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

// MaxImportBytes caps uploaded vocabulary files.
const MaxImportBytes = 5 << 20

func (h *Handlers) handleImport(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	doc := update.Message.Document
	logger.Info("uploading file", "file_name", doc.FileName, "user_id", userID)

	if doc.FileSize > MaxImportBytes {
		sendText(ctx, b, chatID, "The file is too large. Please keep uploads under 5 MB.")
		return
	}

	data, err := h.download(ctx, b, doc.FileID)
	if err != nil {
		logger.Error("failed to download file", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to download the file. Please try again.")
		return
	}

	entries, skipped, err := importexport.Parse(doc.FileName, data)
	if err != nil {
		logger.Error("failed to parse vocabulary file", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to read the file. Please make sure it has term and translation columns.")
		return
	}
	if len(entries) == 0 {
		sendText(ctx, b, chatID, "No valid words found to import.")
		return
	}

	inserted, updated, err := h.repo.ImportWords(ctx, userID, entries)
	if err != nil {
		logger.Error("failed to import words", "user_id", userID, "error", err)
		sendText(ctx, b, chatID, "Failed to import your words. Please try again later.")
		return
	}
	sendText(ctx, b, chatID, fmt.Sprintf("Imported %d new words, updated %d words, skipped %d rows.", inserted, updated, skipped))
}

func (h *Handlers) download(ctx context.Context, b *bot.Bot, fileID string) ([]byte, error) {
	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.FileDownloadLink(file), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImportBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImportBytes {
		return nil, fmt.Errorf("download file: larger than %d bytes", MaxImportBytes)
	}
	return data, nil
}
