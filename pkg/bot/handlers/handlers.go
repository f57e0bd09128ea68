package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/session"
	"github.com/smith3v/vocab-srs/pkg/ui"
)

// HTTPDoer downloads uploaded documents from Telegram's file endpoint.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handlers carries the dependencies shared by every bot command.
type Handlers struct {
	repo     *db.Repository
	manager  *session.Manager
	registry *session.Registry
	now      func() time.Time
	client   HTTPDoer
}

type Option func(*Handlers)

func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

func WithHTTPClient(client HTTPDoer) Option {
	return func(h *Handlers) {
		if client != nil {
			h.client = client
		}
	}
}

func New(repo *db.Repository, manager *session.Manager, registry *session.Registry, opts ...Option) *Handlers {
	h := &Handlers{
		repo:     repo,
		manager:  manager,
		registry: registry,
		now:      time.Now,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register wires commands and callbacks. The default handler is set when the
// bot is created.
func (h *Handlers) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.HandleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/review", bot.MatchTypeExact, h.HandleReview)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/learn", bot.MatchTypeExact, h.HandleLearn)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/mix", bot.MatchTypeExact, h.HandleMix)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stop", bot.MatchTypeExact, h.HandleStop)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypeExact, h.HandleStats)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypeExact, h.HandleExport)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/reminders", bot.MatchTypePrefix, h.HandleReminders)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, ui.QualityCallbackPrefix, bot.MatchTypePrefix, h.HandleQualityCallback)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, ui.ReminderCallbackPrefix, bot.MatchTypePrefix, h.HandleReminderCallback)
}

func validMessage(update *models.Update) bool {
	return update != nil && update.Message != nil && update.Message.From != nil && update.Message.Chat.ID != 0
}

func sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// requirePrivate answers commands that only make sense one on one.
func requirePrivate(ctx context.Context, b *bot.Bot, update *models.Update, command string) bool {
	if update.Message.Chat.Type == models.ChatTypePrivate {
		return true
	}
	sendText(ctx, b, update.Message.Chat.ID, "The "+command+" command works only in private chat.")
	return false
}
