package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/session"
	"github.com/smith3v/vocab-srs/pkg/srs"
	"github.com/smith3v/vocab-srs/pkg/ui"
)

var errStaleCard = errors.New("stale card")

func (h *Handlers) HandleReview(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.startSession(ctx, b, update, session.TypeReview, "/review")
}

func (h *Handlers) HandleLearn(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.startSession(ctx, b, update, session.TypeLearning, "/learn")
}

func (h *Handlers) HandleMix(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.startSession(ctx, b, update, session.TypeMixed, "/mix")
}

func emptyQueueText(kind session.Type) string {
	switch kind {
	case session.TypeLearning:
		return "No new words to learn. Upload a CSV or XLSX file to add some."
	case session.TypeMixed:
		return "Nothing to study right now. Come back later or upload new words."
	default:
		return "Nothing to review right now. Try /learn to study new words."
	}
}

func (h *Handlers) startSession(ctx context.Context, b *bot.Bot, update *models.Update, kind session.Type, command string) {
	if !validMessage(update) {
		logger.Error("invalid update in startSession", "type", kind)
		return
	}
	if !requirePrivate(ctx, b, update, command) {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	s, err := h.manager.StartForUser(ctx, userID, kind)
	if errors.Is(err, session.ErrEmptyQueue) {
		sendText(ctx, b, chatID, emptyQueueText(kind))
		return
	}
	if err != nil {
		logger.Error("failed to start session", "user_id", userID, "type", kind, "error", err)
		sendText(ctx, b, chatID, "Failed to start the session. Please try again later.")
		return
	}

	card, _ := s.Current()
	token, previous := h.registry.Put(chatID, userID, s)
	if previous != nil {
		if err := h.manager.Abandon(previous); err != nil && !errors.Is(err, session.ErrSessionNotInProgress) {
			logger.Error("failed to abandon replaced session", "user_id", userID, "session_id", previous.ID(), "error", err)
		}
	}

	sendText(ctx, b, chatID, ui.RenderSessionStart(s))
	h.sendCard(ctx, b, chatID, userID, token, card, 1, s.Total())
}

func (h *Handlers) sendCard(ctx context.Context, b *bot.Bot, chatID, userID int64, token string, card srs.DueWord, position, total int) {
	prompt := ui.RenderCard(card, position, total)
	keyboard, err := ui.QualityKeyboard(token)
	if err != nil {
		logger.Error("failed to build quality keyboard", "user_id", userID, "error", err)
		return
	}
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        prompt,
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Error("failed to send card", "user_id", userID, "word_id", card.WordID, "error", err)
		return
	}
	h.registry.Bind(chatID, userID, token, msg.ID, prompt)
}

func (h *Handlers) HandleStop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStop")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	s := h.registry.Remove(chatID, userID)
	if s == nil {
		sendText(ctx, b, chatID, "No active session. Use /review, /learn or /mix to start one.")
		return
	}
	if err := h.manager.Abandon(s); err != nil && !errors.Is(err, session.ErrSessionNotInProgress) {
		logger.Error("failed to abandon session", "user_id", userID, "session_id", s.ID(), "error", err)
	}
	sendText(ctx, b, chatID, ui.RenderSessionSummary(s))
}

// ExpireSession ends a session dropped by the registry sweeper.
func (h *Handlers) ExpireSession(s *session.Session) {
	if err := h.manager.Expire(s); err != nil && !errors.Is(err, session.ErrSessionNotInProgress) {
		logger.Error("failed to expire session", "session_id", s.ID(), "error", err)
	}
}

func (h *Handlers) HandleQualityCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleQualityCallback")
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
			logger.Error("failed to answer quality callback query", "error", err)
		}
	}

	token, q, err := ui.ParseQualityCallback(update.CallbackQuery.Data)
	if err != nil {
		answerCallback("Not active")
		return
	}
	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil || message.Message.Chat.ID == 0 {
		answerCallback("Message missing")
		return
	}
	msg := message.Message
	chatID := msg.Chat.ID
	userID := update.CallbackQuery.From.ID

	var (
		s         *session.Session
		prompt    string
		next      srs.DueWord
		hasNext   bool
		nextToken string
		position  int
		total     int
		summary   string
	)
	err = h.registry.Do(chatID, userID, func(e *session.Entry) error {
		if e.Token != token || (e.MessageID != 0 && e.MessageID != msg.ID) {
			return errStaleCard
		}
		if _, err := h.manager.Answer(e.Session, q); err != nil {
			return err
		}
		s = e.Session
		prompt = e.PromptText
		next, hasNext = s.Current()
		nextToken = e.RotateToken()
		position = s.Cursor() + 1
		total = s.Total()
		if !hasNext {
			summary = ui.RenderSessionSummary(s)
		}
		return nil
	})
	switch {
	case errors.Is(err, session.ErrNoActiveSession), errors.Is(err, errStaleCard), errors.Is(err, session.ErrSessionNotInProgress):
		answerCallback("Not active")
		return
	case err != nil:
		logger.Error("failed to record answer", "user_id", userID, "error", err)
		answerCallback("Failed to record answer")
		return
	}
	answerCallback("")

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msg.ID,
		Text:      ui.ResolvedCardText(prompt, q),
		ParseMode: models.ParseModeMarkdown,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		},
	}); err != nil {
		logger.Error("failed to edit answered card", "user_id", userID, "error", err)
	}

	if hasNext {
		h.sendCard(ctx, b, chatID, userID, nextToken, next, position, total)
		return
	}
	h.registry.Release(chatID, userID, s)
	sendText(ctx, b, chatID, summary)
}

// AbandonAll ends every live session. It is called on shutdown before the
// dispatcher drains.
func (h *Handlers) AbandonAll() int {
	ended := 0
	for _, s := range h.registry.Drain() {
		if err := h.manager.Abandon(s); err == nil {
			ended++
		}
	}
	return ended
}
